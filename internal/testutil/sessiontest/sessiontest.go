// Package sessiontest provides an in-memory transport.Session for tests.
package sessiontest

import (
	"io"
	"sync"
	"time"

	"github.com/danmuck/oraclebs/internal/transport"
)

// Responder maps one written chunk to the output it produces.
type Responder func(written string) string

// Session replays scripted output and records every write.
type Session struct {
	mu      sync.Mutex
	pending []byte
	writes  []string
	respond Responder
	eof     bool
	failure error
	closed  int
}

var _ transport.Session = (*Session)(nil)

// New returns a session whose first reads yield greeting.
func New(greeting string, respond Responder) *Session {
	return &Session{pending: []byte(greeting), respond: respond}
}

// Feed queues more output.
func (s *Session) Feed(out string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, out...)
}

// Fail makes reads return err once pending output is drained.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// Hangup makes reads return io.EOF once pending output is drained.
func (s *Session) Hangup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eof = true
}

func (s *Session) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed > 0 {
		return transport.ErrClosed
	}
	w := string(p)
	s.writes = append(s.writes, w)
	if s.respond != nil {
		s.pending = append(s.pending, s.respond(w)...)
	}
	return nil
}

// ReadAvailable blocks for the full timeout when nothing is pending, like a
// quiet socket would.
func (s *Session) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	if len(s.pending) > 0 {
		if max <= 0 || max > len(s.pending) {
			max = len(s.pending)
		}
		out := append([]byte(nil), s.pending[:max]...)
		s.pending = s.pending[max:]
		s.mu.Unlock()
		return out, nil
	}
	eof := s.eof || s.closed > 0
	failure := s.failure
	s.mu.Unlock()
	if failure != nil {
		return nil, failure
	}
	if eof {
		return nil, io.EOF
	}
	time.Sleep(timeout)
	return nil, transport.ErrReadTimeout
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Writes returns a copy of everything written so far.
func (s *Session) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

// Closed reports how many times Close was called.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
