package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pkt.systems/codelab/internal/logx"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// ErrSuperseded is the cause recorded on sessions replaced by a newer run.
var ErrSuperseded = errors.New("superseded by a newer run")

// DispatcherDeps captures the collaborators of a Dispatcher.
type DispatcherDeps struct {
	Backends []Backend
	Output   *OutputChannel
	Sink     EventSink
	Logger   pslog.Logger
}

// Dispatcher routes run requests to backends and owns the single active run.
type Dispatcher struct {
	mu         sync.Mutex
	backends   map[BackendKind]Backend
	output     *OutputChannel
	sink       EventSink
	logger     pslog.Logger
	generation uint64
	active     *Session
}

// NewDispatcher constructs a dispatcher. Languages whose backend is missing
// fail their runs with a service unavailable error.
func NewDispatcher(deps DispatcherDeps) (*Dispatcher, error) {
	backends := make(map[BackendKind]Backend, len(deps.Backends))
	for _, backend := range deps.Backends {
		if backend == nil {
			continue
		}
		kind := backend.Kind()
		if _, exists := backends[kind]; exists {
			return nil, fmt.Errorf("duplicate %s backend", kind)
		}
		backends[kind] = backend
	}
	output := deps.Output
	if output == nil {
		output = NewOutputChannel(DefaultMaxEntries)
	}
	var sink EventSink = nopSink{}
	if deps.Sink != nil {
		sink = deps.Sink
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Dispatcher{
		backends: backends,
		output:   output,
		sink:     sink,
		logger:   logger,
	}, nil
}

// Output returns the channel the dispatcher writes to.
func (d *Dispatcher) Output() *OutputChannel {
	return d.output
}

// Generation returns the generation of the most recently dispatched run.
func (d *Dispatcher) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

// Running reports whether a run is in flight.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil && !d.active.isFinished()
}

// Active returns the most recently dispatched session, or nil.
func (d *Dispatcher) Active() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Run cancels any in-flight run, clears the output channel, and dispatches
// req to the backend for its language. It returns without waiting for the
// run; use the session to wait.
func (d *Dispatcher) Run(ctx context.Context, req schema.RunRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kind, _ := BackendFor(req.Language)

	d.mu.Lock()
	d.supersedeLocked()
	d.generation++
	generation := d.generation
	runCtx, cancel := context.WithCancel(ctx)
	session := newSession(generation, req.Language, cancel)
	d.active = session
	d.output.Clear()
	d.sink.OnStatus(schema.StatusEvent{
		Generation: generation,
		Language:   req.Language,
		Status:     schema.RunStarted,
	})
	backend := d.backends[kind]
	d.mu.Unlock()

	log := logx.WithRun(ctx, req.Language, generation).With("backend", kind)
	runCtx = logx.ContextWithRunLogger(runCtx, log, req.Language, generation)
	log.Info("dispatcher run start", "active_file", req.ActiveFile, "files", len(req.Files))

	if backend == nil {
		d.complete(log, session, NewExecError(ErrorServiceUnavailable, "dispatch", fmt.Errorf("no %s backend configured", kind)))
		return session, nil
	}
	go func() {
		err := backend.Execute(runCtx, req, d.emitter(log, session))
		d.complete(log, session, err)
	}()
	return session, nil
}

// Cancel aborts the in-flight run, if any.
func (d *Dispatcher) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil || d.active.isFinished() {
		return false
	}
	d.finishLocked(d.active, schema.RunCanceled, NewExecError(ErrorCanceled, "dispatch", context.Canceled))
	return true
}

// Append writes an entry outside of a run, such as an interactive shell
// reply. It is tagged with the current generation.
func (d *Dispatcher) Append(severity schema.Severity, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink.OnOutput(d.output.Append(d.generation, severity, text))
}

// Reset cancels the in-flight run and clears the output channel.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supersedeLocked()
	d.generation++
	d.output.Clear()
}

func (d *Dispatcher) supersedeLocked() {
	if d.active == nil || d.active.isFinished() {
		return
	}
	d.logger.Debug("dispatcher superseding run", "generation", d.active.generation)
	d.finishLocked(d.active, schema.RunCanceled, NewExecError(ErrorCanceled, "dispatch", ErrSuperseded))
}

func (d *Dispatcher) emitter(log pslog.Logger, session *Session) Emitter {
	return func(severity schema.Severity, text string) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if session.generation != d.generation || session.isFinished() {
			log.Debug("dispatcher dropped stale output", "current_generation", d.generation)
			return
		}
		d.sink.OnOutput(d.output.Append(session.generation, severity, text))
	}
}

func (d *Dispatcher) complete(log pslog.Logger, session *Session, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if session.isFinished() {
		return
	}
	if session.generation != d.generation {
		log.Debug("dispatcher dropped stale completion", "current_generation", d.generation)
		session.finish(schema.RunCanceled, NewExecError(ErrorCanceled, "dispatch", ErrSuperseded))
		return
	}
	status := schema.RunDone
	if err != nil {
		switch KindOf(err) {
		case ErrorResourceExceeded:
			status = schema.RunTimeout
		case ErrorCanceled:
			status = schema.RunCanceled
		default:
			status = schema.RunError
		}
		if status != schema.RunCanceled {
			for _, line := range errorLines(err) {
				d.sink.OnOutput(d.output.Append(session.generation, schema.SeverityError, line))
			}
		}
	}
	d.finishLocked(session, status, err)
	duration := time.Since(session.started)
	if err != nil {
		log.Warn("dispatcher run finished", "status", status, "duration_ms", duration.Milliseconds(), "err", err)
		return
	}
	log.Info("dispatcher run finished", "status", status, "duration_ms", duration.Milliseconds())
}

// finishLocked publishes the terminal status before releasing waiters, so a
// caller returning from Session.Wait has seen every event of the run.
func (d *Dispatcher) finishLocked(session *Session, status schema.RunStatus, err error) {
	if session.isFinished() {
		return
	}
	d.sink.OnStatus(schema.StatusEvent{
		Generation: session.generation,
		Language:   session.language,
		Status:     status,
		Duration:   time.Since(session.started),
	})
	session.finish(status, err)
}

// errorLines renders err as user-facing output lines with an optional hint.
func errorLines(err error) []string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	var lines []string
	switch KindOf(err) {
	case ErrorBuild:
		lines = []string{"Build Error: " + msg}
	case ErrorRuntime:
		lines = []string{"Runtime Error: " + msg}
	case ErrorServiceUnavailable:
		lines = []string{"Service Unavailable: " + msg}
	case ErrorMalformedResponse:
		lines = []string{"Malformed Response: " + msg}
	default:
		lines = []string{"Error: " + msg}
	}
	if execErr, ok := AsExecError(err); ok && execErr.Hint != "" {
		lines = append(lines, "hint: "+execErr.Hint)
	}
	return lines
}
