package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TCPSession is a Session over a network connection.
type TCPSession struct {
	conn  net.Conn
	chunk int

	closeOnce sync.Once
	closeErr  error
}

var _ Session = (*TCPSession)(nil)

func DialTCP(ctx context.Context, addr string, cfg Config) (*TCPSession, error) {
	cfg = cfg.WithDefaults()
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	log.Debug().Str("addr", addr).Msg("transport.DialTCP connected")
	return NewTCPSession(conn, cfg), nil
}

// NewTCPSession wraps an established connection.
func NewTCPSession(conn net.Conn, cfg Config) *TCPSession {
	cfg = cfg.WithDefaults()
	return &TCPSession{conn: conn, chunk: cfg.ReadChunk}
}

func (s *TCPSession) Write(p []byte) error {
	if _, err := s.conn.Write(p); err != nil {
		return fmt.Errorf("transport: tcp write: %w", err)
	}
	return nil
}

func (s *TCPSession) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		return nil, ErrReadTimeout
	}
	if max <= 0 {
		max = s.chunk
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, classifyReadErr(err)
	}
	buf := make([]byte, max)
	n, err := s.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	return nil, classifyReadErr(err)
}

func (s *TCPSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
		log.Debug().Str("addr", s.conn.RemoteAddr().String()).Msg("transport.TCPSession closed")
	})
	return s.closeErr
}
