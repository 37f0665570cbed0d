package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"pkt.systems/pslog"
)

const stderrTailBytes = 4096

// ProcessConfig controls how a worker subprocess is launched.
type ProcessConfig struct {
	// Command is the argv of the worker. When empty the current executable
	// is re-invoked with the sandbox-worker subcommand.
	Command      []string
	Env          []string
	MaxLineBytes int
}

func (c ProcessConfig) argv() ([]string, error) {
	if len(c.Command) > 0 {
		return c.Command, nil
	}
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return []string{self, "sandbox-worker"}, nil
}

// processWorker runs the job in a child process so a runaway script can be
// killed without touching the host runtime.
type processWorker struct {
	cmd      *exec.Cmd
	messages chan Message
	stop     chan struct{}
	once     sync.Once
	stderr   *tailBuffer
	log      pslog.Logger
}

// StartProcess launches a worker subprocess and sends it job.
func StartProcess(ctx context.Context, cfg ProcessConfig, job Job) (Worker, error) {
	argv, err := cfg.argv()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	log := pslog.Ctx(ctx)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(append(os.Environ(), cfg.Env...), WorkerEnv+"=1")
	configureProcessGroup(cmd)
	cmd.Stdin = bytes.NewReader(append(payload, '\n'))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	tail := &tailBuffer{max: stderrTailBytes}
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		if log != nil {
			log.Error("sandbox worker start failed", "err", err)
		}
		return nil, err
	}
	if log != nil {
		log.Debug("sandbox worker started", "pid", cmd.Process.Pid, "source_len", len(job.Source))
	}
	w := &processWorker{
		cmd:      cmd,
		messages: make(chan Message, messageDepth),
		stop:     make(chan struct{}),
		stderr:   tail,
		log:      log,
	}
	go w.read(stdout, cfg.MaxLineBytes)
	return w, nil
}

func (w *processWorker) read(stdout io.Reader, maxLine int) {
	defer close(w.messages)
	reader := newJSONLReader(stdout, maxLine)
	terminal := false
	for !terminal {
		msg, err := reader.Next()
		if err != nil {
			var decodeErr *jsonlDecodeError
			if errors.As(err, &decodeErr) {
				if w.log != nil {
					w.log.Warn("sandbox worker decode failed", "err", err)
				}
				continue
			}
			var tooLong *jsonlLineTooLongError
			if errors.As(err, &tooLong) {
				if w.log != nil {
					w.log.Warn("sandbox worker line dropped", "err", err)
				}
				if !w.post(Message{Type: MessageOutput, Level: "warn", Content: droppedLineMessage(tooLong.limit)}) {
					break
				}
				continue
			}
			break
		}
		terminal = msg.Terminal()
		if !w.post(msg) {
			break
		}
	}
	waitErr := w.cmd.Wait()
	if terminal || w.stopped() {
		return
	}
	text := strings.TrimSpace(w.stderr.String())
	if text == "" {
		text = "worker exited unexpectedly"
		if waitErr != nil {
			text += ": " + waitErr.Error()
		}
	}
	w.post(Message{Type: MessageError, Content: text})
}

func droppedLineMessage(limit int) string {
	return fmt.Sprintf("Output dropped (message exceeds %d bytes).", limit)
}

func (w *processWorker) post(msg Message) bool {
	select {
	case w.messages <- msg:
		return true
	case <-w.stop:
		return false
	}
}

func (w *processWorker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

func (w *processWorker) Messages() <-chan Message {
	return w.messages
}

func (w *processWorker) Terminate() {
	w.once.Do(func() {
		close(w.stop)
		if err := killProcessGroup(w.cmd); err != nil && w.log != nil {
			w.log.Debug("sandbox worker kill failed", "err", err)
		}
	})
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append([]byte(nil), t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
