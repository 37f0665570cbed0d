package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WorkerEnv marks a process started as a sandbox worker.
const WorkerEnv = "CODELAB_SANDBOX_WORKER"

// Serve reads a single Job from r, executes it on a goroutine worker and
// writes every message to w as JSON lines. It returns after the terminal
// message has been written.
func Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	var job Job
	if err := json.NewDecoder(r).Decode(&job); err != nil {
		return fmt.Errorf("decode job: %w", err)
	}
	worker := StartGoroutine(job)
	defer worker.Terminate()
	out := newJSONLWriter(w, defaultMaxLineBytes)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-worker.Messages():
			if !ok {
				return nil
			}
			if err := out.Write(msg); err != nil {
				return fmt.Errorf("write message: %w", err)
			}
			if msg.Terminal() {
				return nil
			}
		}
	}
}

// ServeMain runs Serve over the process stdio.
func ServeMain(ctx context.Context) error {
	return Serve(ctx, os.Stdin, os.Stdout)
}
