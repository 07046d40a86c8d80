package connector

import (
	"encoding/json"
	"io"
	"net/http"
)

// ArrayStream writes a JSON array to a sink one element at a time, so rows
// reach the client as they are produced instead of after the full result
// set is buffered. When the sink is an http.ResponseWriter the stream
// flushes after every element.
type ArrayStream struct {
	w       io.Writer
	flusher http.Flusher
	started bool
}

// NewArrayStream returns an ArrayStream over w. Nothing is written until
// the first element or Close.
func NewArrayStream(w io.Writer) *ArrayStream {
	s := &ArrayStream{w: w}
	if flusher, ok := w.(http.Flusher); ok {
		s.flusher = flusher
	}
	return s
}

// Write appends one element to the array. The write is accepted by the
// sink before Write returns, so a slow consumer backpressures the
// producer and a disconnected one fails the write.
func (s *ArrayStream) Write(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	separator := []byte(",")
	if !s.started {
		separator = []byte("[")
		s.started = true
	}

	if _, err := s.w.Write(separator); err != nil {
		return err
	}
	if _, err := s.w.Write(payload); err != nil {
		return err
	}

	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Close terminates the array. A stream with no elements closes to "[]".
func (s *ArrayStream) Close() error {
	terminator := []byte("]")
	if !s.started {
		terminator = []byte("[]")
	}

	if _, err := s.w.Write(terminator); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
