package core

import (
	"context"
	"sync"
	"time"

	"pkt.systems/codelab/schema"
)

// Session is the bookkeeping for one dispatched run.
type Session struct {
	generation uint64
	language   schema.Language
	started    time.Time
	cancel     context.CancelFunc
	done       chan struct{}

	mu       sync.Mutex
	finished bool
	status   schema.RunStatus
	err      error
}

func newSession(generation uint64, lang schema.Language, cancel context.CancelFunc) *Session {
	return &Session{
		generation: generation,
		language:   lang,
		started:    time.Now(),
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     schema.RunStarted,
	}
}

// Generation returns the run generation the session was dispatched with.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Language returns the language of the run.
func (s *Session) Language() schema.Language {
	return s.language
}

// Done is closed once the session reaches a terminal status.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session is terminal or ctx ends.
func (s *Session) Wait(ctx context.Context) (schema.RunStatus, error) {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.status, s.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Status returns the current status and the error that ended the run, if any.
func (s *Session) Status() (schema.RunStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.err
}

// finish moves the session to a terminal status once; later calls are ignored.
func (s *Session) finish(status schema.RunStatus, err error) bool {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return false
	}
	s.finished = true
	s.status = status
	s.err = err
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	close(s.done)
	return true
}

func (s *Session) isFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Started returns when the run was dispatched.
func (s *Session) Started() time.Time {
	return s.started
}
