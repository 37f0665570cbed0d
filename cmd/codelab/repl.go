package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

const maxInputLineBytes = 1 << 20

var errStopLoop = errors.New("stop loop")

// lineLoop feeds lines from in to handle until EOF, ctx cancellation or
// errStopLoop. prompt may be nil for non-interactive input.
func lineLoop(ctx context.Context, in io.Reader, out io.Writer, prompt func() string, handle func(context.Context, string) error) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxInputLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if prompt != nil {
			_, _ = fmt.Fprint(out, prompt())
		}
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if prompt != nil {
				_, _ = fmt.Fprintln(out)
			}
			return err
		case line := <-lines:
			if err := handle(ctx, line); err != nil {
				if errors.Is(err, errStopLoop) {
					return nil
				}
				return err
			}
		}
	}
}

// interactivePrompt returns prompt when in is a terminal, nil otherwise.
func interactivePrompt(in io.Reader, prompt func() string) func() string {
	if !isTerminal(in) {
		return nil
	}
	return prompt
}
