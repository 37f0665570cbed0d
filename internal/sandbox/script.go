package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const maxCallStackSize = 10000

var errTerminated = errors.New("worker terminated")

var consoleLevels = []string{"log", "info", "warn", "error", "debug"}

// script executes one job inside a dedicated runtime. All of its methods run
// on the worker goroutine.
type script struct {
	vm     *goja.Runtime
	limits Limits
	post   func(Message)
	stop   <-chan struct{}
	count  int
	timers timerQueue
}

func runScript(vm *goja.Runtime, source string, limits Limits, stop <-chan struct{}, post func(Message)) {
	s := &script{vm: vm, limits: limits.normalized(), post: post, stop: stop}
	defer func() {
		if r := recover(); r != nil {
			post(Message{Type: MessageError, Content: fmt.Sprintf("internal error: %v", r)})
		}
	}()
	if err := s.execute(source); err != nil {
		if errors.Is(err, errTerminated) {
			return
		}
		post(Message{Type: MessageError, Content: errorText(err)})
		return
	}
	post(Message{Type: MessageDone})
}

func (s *script) execute(source string) error {
	s.vm.SetMaxCallStackSize(maxCallStackSize)
	console := s.vm.NewObject()
	for _, level := range consoleLevels {
		level := level
		if err := console.Set(level, func(call goja.FunctionCall) goja.Value {
			s.log(level, call.Arguments)
			return goja.Undefined()
		}); err != nil {
			return err
		}
	}
	if err := s.vm.Set("console", console); err != nil {
		return err
	}
	if err := s.installTimers(); err != nil {
		return err
	}
	wrapped, err := s.vm.RunString("(function(console) {\n" + source + "\n})")
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(wrapped)
	if !ok {
		return errors.New("script did not compile to a function")
	}
	if _, err := fn(goja.Undefined(), console); err != nil {
		return err
	}
	return s.drainTimers()
}

func (s *script) log(level string, args []goja.Value) {
	s.count++
	if s.count > s.limits.MaxMessages {
		if s.count == s.limits.MaxMessages+1 {
			s.post(Message{Type: MessageOutput, Level: "warn", Content: SuppressionMessage(s.limits.MaxMessages)})
		}
		return
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(s.vm, arg, s.limits.MaxEntryChars)
	}
	s.post(Message{Type: MessageOutput, Level: level, Content: strings.Join(parts, " ")})
}

func (s *script) installTimers() error {
	schedule := func(repeat bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			fn, ok := goja.AssertFunction(call.Argument(0))
			if !ok {
				panic(s.vm.NewTypeError("callback must be a function"))
			}
			delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
			if delay < 0 {
				delay = 0
			}
			if repeat && delay < time.Millisecond {
				delay = time.Millisecond
			}
			var args []goja.Value
			if len(call.Arguments) > 2 {
				args = append(args, call.Arguments[2:]...)
			}
			id := s.timers.add(fn, args, delay, repeat)
			return s.vm.ToValue(id)
		}
	}
	clear := func(call goja.FunctionCall) goja.Value {
		s.timers.remove(call.Argument(0).ToInteger())
		return goja.Undefined()
	}
	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"setTimeout":    schedule(false),
		"setInterval":   schedule(true),
		"clearTimeout":  clear,
		"clearInterval": clear,
	} {
		if err := s.vm.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *script) drainTimers() error {
	for {
		t, ok := s.timers.next()
		if !ok {
			return nil
		}
		if wait := time.Until(t.due); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-s.stop:
				timer.Stop()
				return errTerminated
			case <-timer.C:
			}
		}
		if t.repeat {
			s.timers.reschedule(t)
		}
		if _, err := t.fn(goja.Undefined(), t.args...); err != nil {
			return err
		}
	}
}

func errorText(err error) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return errTerminated.Error()
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		if value := exception.Value(); value != nil {
			return value.String()
		}
	}
	return err.Error()
}
