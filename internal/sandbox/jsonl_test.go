package sandbox

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestJSONLReaderReadsMessages(t *testing.T) {
	data := "\n" +
		`{"type":"output","level":"log","content":"hi"}` + "\n" +
		`{"type":"done"}` + "\n"
	reader := newJSONLReader(strings.NewReader(data), 0)
	msg, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Type != MessageOutput || msg.Content != "hi" || msg.Terminal() {
		t.Fatalf("unexpected first message: %+v", msg)
	}
	msg, err = reader.Next()
	if err != nil || !msg.Terminal() {
		t.Fatalf("expected terminal message, got %+v %v", msg, err)
	}
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestJSONLReaderReportsDecodeErrors(t *testing.T) {
	reader := newJSONLReader(strings.NewReader("not json\n{\"type\":\"bogus\"}\n"), 0)
	for i := 0; i < 2; i++ {
		_, err := reader.Next()
		var decodeErr *jsonlDecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("line %d: expected decode error, got %v", i, err)
		}
	}
}

func TestJSONLReaderSkipsOversizedLines(t *testing.T) {
	data := `{"type":"output","content":"` + strings.Repeat("x", 8192) + `"}` + "\n" +
		`{"type":"done"}` + "\n"
	reader := newJSONLReader(strings.NewReader(data), 64)
	_, err := reader.Next()
	var tooLong *jsonlLineTooLongError
	if !errors.As(err, &tooLong) || tooLong.limit != 64 {
		t.Fatalf("expected line too long error, got %v", err)
	}
	msg, err := reader.Next()
	if err != nil || msg.Type != MessageDone {
		t.Fatalf("expected done after skipped line, got %+v %v", msg, err)
	}
}

func TestJSONLWriterCapsEncodedLine(t *testing.T) {
	var out bytes.Buffer
	writer := newJSONLWriter(&out, 512)
	content := strings.Repeat("\x01", 1000)
	if err := writer.Write(Message{Type: MessageOutput, Level: "log", Content: content}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := writer.Write(Message{Type: MessageDone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for i, line := range strings.SplitAfter(strings.TrimSuffix(out.String(), "\n"), "\n") {
		if len(line) > 512 {
			t.Fatalf("line %d is %d bytes", i, len(line))
		}
	}
	reader := newJSONLReader(&out, 512)
	msg, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !strings.HasSuffix(msg.Content, "[Output truncated - 1000 characters total]") {
		t.Fatalf("expected truncation marker, got %q", msg.Content)
	}
	if msg, err := reader.Next(); err != nil || msg.Type != MessageDone {
		t.Fatalf("expected done, got %+v %v", msg, err)
	}
}

func TestServeWritesMessages(t *testing.T) {
	in := strings.NewReader(`{"source":"console.error(\"bad\")","limits":{}}`)
	var out bytes.Buffer
	if err := Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	reader := newJSONLReader(&out, 0)
	msg, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Type != MessageOutput || msg.Level != "error" || msg.Content != "bad" {
		t.Fatalf("unexpected message %+v", msg)
	}
	msg, err = reader.Next()
	if err != nil || msg.Type != MessageDone {
		t.Fatalf("expected done, got %+v %v", msg, err)
	}
}

func TestTailBufferKeepsSuffix(t *testing.T) {
	tail := &tailBuffer{max: 4}
	_, _ = tail.Write([]byte("abc"))
	_, _ = tail.Write([]byte("def"))
	if got := tail.String(); got != "cdef" {
		t.Fatalf("expected cdef, got %q", got)
	}
}
