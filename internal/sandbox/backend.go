package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// DefaultTimeout is the wall clock cap of a single run.
const DefaultTimeout = 10 * time.Second

// Isolation selects how the worker is hosted.
type Isolation string

const (
	// IsolationGoroutine runs the script on a private runtime in-process.
	IsolationGoroutine Isolation = "goroutine"
	// IsolationProcess runs the script in a child worker process.
	IsolationProcess Isolation = "process"
)

// ParseIsolation validates an isolation mode name.
func ParseIsolation(value string) (Isolation, error) {
	switch Isolation(strings.ToLower(strings.TrimSpace(value))) {
	case "", IsolationGoroutine:
		return IsolationGoroutine, nil
	case IsolationProcess:
		return IsolationProcess, nil
	default:
		return "", fmt.Errorf("unknown sandbox isolation %q", value)
	}
}

// Config controls the script backend.
type Config struct {
	Timeout   time.Duration
	Limits    Limits
	Isolation Isolation
	Process   ProcessConfig
}

// Backend runs plain JavaScript in an isolated worker.
type Backend struct {
	cfg Config
}

// New constructs the script backend.
func New(cfg Config) *Backend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.Limits = cfg.Limits.normalized()
	if cfg.Isolation == "" {
		cfg.Isolation = IsolationGoroutine
	}
	return &Backend{cfg: cfg}
}

// Kind implements core.Backend.
func (b *Backend) Kind() core.BackendKind {
	return core.BackendScript
}

func (b *Backend) start(ctx context.Context, job Job) (Worker, error) {
	if b.cfg.Isolation == IsolationProcess {
		return StartProcess(ctx, b.cfg.Process, job)
	}
	return StartGoroutine(job), nil
}

// Execute implements core.Backend. Each call gets a fresh worker which is
// terminated on completion, timeout or cancellation.
func (b *Backend) Execute(ctx context.Context, req schema.RunRequest, emit core.Emitter) error {
	log := pslog.Ctx(ctx)
	worker, err := b.start(ctx, Job{Source: req.Source(), Limits: b.cfg.Limits})
	if err != nil {
		return core.NewExecError(core.ErrorRuntime, "sandbox start", err)
	}
	defer worker.Terminate()

	timer := time.NewTimer(b.cfg.Timeout)
	defer timer.Stop()

	messages := worker.Messages()
	count := 0
	for {
		select {
		case <-ctx.Done():
			worker.Terminate()
			return core.NewExecError(core.ErrorCanceled, "sandbox", ctx.Err())
		case <-timer.C:
			worker.Terminate()
			if log != nil {
				log.Warn("sandbox time limit exceeded", "timeout_ms", b.cfg.Timeout.Milliseconds(), "messages", count)
			}
			return core.TimeLimitExceeded("sandbox", b.cfg.Timeout)
		case msg, ok := <-messages:
			if !ok {
				return core.NewExecError(core.ErrorRuntime, "sandbox", errors.New("worker exited unexpectedly"))
			}
			switch msg.Type {
			case MessageOutput:
				count++
				emit(schema.SeverityFromLevel(msg.Level), msg.Content)
			case MessageError:
				return &core.ExecError{Kind: core.ErrorRuntime, Op: "sandbox", Message: msg.Content}
			case MessageDone:
				if log != nil {
					log.Debug("sandbox run complete", "messages", count)
				}
				return nil
			}
		}
	}
}
