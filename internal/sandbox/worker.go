package sandbox

import (
	"sync"

	"github.com/dop251/goja"
)

// Worker is an isolated execution context that reports back only through
// plain-data messages. Terminate is idempotent and may race with natural
// completion.
type Worker interface {
	Messages() <-chan Message
	Terminate()
}

const messageDepth = 256

// goroutineWorker owns a private goja runtime on its own goroutine.
type goroutineWorker struct {
	vm       *goja.Runtime
	messages chan Message
	stop     chan struct{}
	once     sync.Once
}

// StartGoroutine runs job on a fresh runtime in a new goroutine.
func StartGoroutine(job Job) Worker {
	w := &goroutineWorker{
		vm:       goja.New(),
		messages: make(chan Message, messageDepth),
		stop:     make(chan struct{}),
	}
	go w.run(job)
	return w
}

func (w *goroutineWorker) run(job Job) {
	defer close(w.messages)
	runScript(w.vm, job.Source, job.Limits, w.stop, w.post)
}

func (w *goroutineWorker) post(msg Message) {
	select {
	case <-w.stop:
		return
	default:
	}
	select {
	case w.messages <- msg:
	case <-w.stop:
	}
}

func (w *goroutineWorker) Messages() <-chan Message {
	return w.messages
}

func (w *goroutineWorker) Terminate() {
	w.once.Do(func() {
		close(w.stop)
		w.vm.Interrupt(errTerminated)
	})
}
