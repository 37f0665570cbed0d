package sandbox

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const defaultMaxLineBytes = 8 * 1024 * 1024

// escapedRuneBytes is the widest JSON encoding of a single rune (\u0001).
const escapedRuneBytes = 6

// jsonlEnvelopeBytes is reserved for the envelope and truncation marker.
const jsonlEnvelopeBytes = 256

// jsonlLineTooLongError reports a line that was skipped because it exceeded
// the reader limit. The reader stays usable after it.
type jsonlLineTooLongError struct {
	limit int
}

func (e *jsonlLineTooLongError) Error() string {
	return fmt.Sprintf("jsonl line exceeds %d bytes", e.limit)
}

type jsonlDecodeError struct {
	line []byte
	err  error
}

func (e *jsonlDecodeError) Error() string {
	if e == nil || e.err == nil {
		return "jsonl decode error"
	}
	return e.err.Error()
}

func (e *jsonlDecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// jsonlReader decodes one Message per newline-terminated line.
type jsonlReader struct {
	reader  *bufio.Reader
	maxLine int
}

func newJSONLReader(r io.Reader, maxLine int) *jsonlReader {
	if maxLine <= 0 {
		maxLine = defaultMaxLineBytes
	}
	return &jsonlReader{reader: bufio.NewReader(r), maxLine: maxLine}
}

func (s *jsonlReader) Next() (Message, error) {
	for {
		line, err := s.readLine()
		if len(line) == 0 && err != nil {
			return Message{}, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return Message{}, err
			}
			continue
		}
		msg, decodeErr := decodeMessage(line)
		if decodeErr != nil {
			return Message{}, &jsonlDecodeError{line: append([]byte(nil), line...), err: decodeErr}
		}
		return msg, nil
	}
}

func (s *jsonlReader) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		buf = append(buf, chunk...)
		if len(buf) > s.maxLine {
			if isPrefix && err == nil {
				s.discardLine()
			}
			return nil, &jsonlLineTooLongError{limit: s.maxLine}
		}
		if err != nil || !isPrefix {
			return buf, err
		}
	}
}

// discardLine drops input up to and including the next newline.
func (s *jsonlReader) discardLine() {
	for {
		_, isPrefix, err := s.reader.ReadLine()
		if err != nil || !isPrefix {
			return
		}
	}
}

func decodeMessage(line []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, err
	}
	switch msg.Type {
	case MessageOutput, MessageError, MessageDone:
		return msg, nil
	case "":
		return Message{}, errors.New("message type missing")
	default:
		return Message{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// jsonlWriter encodes messages one per line. Content is truncated so that no
// encoded line exceeds maxBytes.
type jsonlWriter struct {
	w        io.Writer
	buf      bytes.Buffer
	enc      *json.Encoder
	maxBytes int
}

func newJSONLWriter(w io.Writer, maxBytes int) *jsonlWriter {
	if maxBytes <= 0 {
		maxBytes = defaultMaxLineBytes
	}
	out := &jsonlWriter{w: w, maxBytes: maxBytes}
	out.enc = json.NewEncoder(&out.buf)
	out.enc.SetEscapeHTML(false)
	return out
}

func (w *jsonlWriter) Write(msg Message) error {
	if err := w.encode(msg); err != nil {
		return err
	}
	if w.buf.Len() > w.maxBytes && msg.Content != "" {
		chars := (w.maxBytes - jsonlEnvelopeBytes) / escapedRuneBytes
		if chars < 1 {
			chars = 1
		}
		msg.Content = truncate(msg.Content, chars)
		if err := w.encode(msg); err != nil {
			return err
		}
	}
	_, err := w.w.Write(w.buf.Bytes())
	return err
}

func (w *jsonlWriter) encode(msg Message) error {
	w.buf.Reset()
	return w.enc.Encode(msg)
}
