// Package simulate fabricates program output for languages without a local
// interpreter by asking a text generation model what the program would print.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// DefaultTimeout bounds one remote call.
const DefaultTimeout = 15 * time.Second

const credentialHint = "set remote.api_key in the config file or export GEMINI_API_KEY"

// Config controls the simulation backend.
type Config struct {
	Generator remote.Generator
	Timeout   time.Duration
}

// Backend implements core.Backend for remote-simulated languages.
type Backend struct {
	gen     remote.Generator
	timeout time.Duration
}

// New constructs the backend.
func New(cfg Config) *Backend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Backend{gen: cfg.Generator, timeout: timeout}
}

// Kind implements core.Backend.
func (b *Backend) Kind() core.BackendKind {
	return core.BackendRemote
}

// Timeout returns the wall clock cap of one remote call.
func (b *Backend) Timeout() time.Duration {
	return b.timeout
}

// Execute implements core.Backend.
func (b *Backend) Execute(ctx context.Context, req schema.RunRequest, emit core.Emitter) error {
	lines, err := b.Simulate(ctx, req)
	if err != nil {
		return err
	}
	emit(schema.SeverityInfo, fmt.Sprintf("CMD: Executing %s...", req.Language))
	for _, line := range lines {
		emit(schema.SeverityInfo, line)
	}
	return nil
}

// Simulate asks the model for the output of req and returns it as lines with
// code fences removed.
func (b *Backend) Simulate(ctx context.Context, req schema.RunRequest) ([]string, error) {
	text, err := b.generate(ctx, RunPrompt(req), "simulate")
	if err != nil {
		return nil, err
	}
	clean := remote.StripFences(text)
	if clean == "" {
		return nil, nil
	}
	return strings.Split(clean, "\n"), nil
}

// Repl asks the model for the reply to one shell line.
func (b *Backend) Repl(ctx context.Context, lang schema.Language, input string) (string, error) {
	text, err := b.generate(ctx, ReplPrompt(lang, input), "repl")
	if err != nil {
		return "", err
	}
	return remote.StripAllFences(text), nil
}

type generateResult struct {
	text string
	err  error
}

// generate races the remote call against the timeout. The call is abandoned
// on expiry; its late result is discarded.
func (b *Backend) generate(ctx context.Context, prompt, op string) (string, error) {
	if err := remote.Check(b.gen); err != nil {
		return "", &core.ExecError{
			Kind:    core.ErrorServiceUnavailable,
			Op:      op,
			Message: "remote service credential not configured",
			Hint:    credentialHint,
			Err:     err,
		}
	}
	log := pslog.Ctx(ctx)
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	result := make(chan generateResult, 1)
	go func() {
		text, err := b.gen.GenerateText(callCtx, prompt, remote.FormatText)
		result <- generateResult{text: text, err: err}
	}()
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		cancel()
		return "", core.NewExecError(core.ErrorCanceled, op, ctx.Err())
	case <-timer.C:
		cancel()
		if log != nil {
			log.Warn("remote simulation timed out", "timeout_ms", b.timeout.Milliseconds())
		}
		return "", core.TimeLimitExceeded(op, b.timeout)
	case res := <-result:
		cancel()
		if res.err != nil {
			if ctx.Err() != nil {
				return "", core.NewExecError(core.ErrorCanceled, op, ctx.Err())
			}
			if errors.Is(res.err, context.DeadlineExceeded) {
				return "", core.TimeLimitExceeded(op, b.timeout)
			}
			if log != nil {
				log.Warn("remote simulation failed", "err", res.err)
			}
			return "", core.NewExecError(core.ErrorServiceUnavailable, op, res.err)
		}
		return res.text, nil
	}
}
