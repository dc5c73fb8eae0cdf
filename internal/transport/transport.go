package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoTarget        = errors.New("transport: target required (host and port, or bin)")
	ErrAmbiguousTarget = errors.New("transport: host/port and bin are mutually exclusive")
	ErrInvalidPort     = errors.New("transport: invalid port")
	ErrReadTimeout     = errors.New("transport: read timeout")
	ErrClosed          = errors.New("transport: session closed")
)

// Session is a bidirectional byte channel to the oracle target.
type Session interface {
	// Write sends all of p or returns an error.
	Write(p []byte) error
	// ReadAvailable returns up to max bytes that arrive within timeout.
	// It returns ErrReadTimeout when nothing arrived in time and io.EOF
	// once the far end has closed.
	ReadAvailable(max int, timeout time.Duration) ([]byte, error)
	// Close releases the session. Calls after the first are no-ops.
	Close() error
}

// Target names either a remote endpoint or a local executable.
type Target struct {
	Host string
	Port int
	Bin  string
	Args []string
}

func (t Target) IsRemote() bool {
	return strings.TrimSpace(t.Host) != "" || t.Port != 0
}

func (t Target) IsLocal() bool {
	return strings.TrimSpace(t.Bin) != ""
}

func (t Target) Validate() error {
	switch {
	case t.IsRemote() && t.IsLocal():
		return ErrAmbiguousTarget
	case t.IsLocal():
		return nil
	case strings.TrimSpace(t.Host) == "" || t.Port == 0:
		if t.IsRemote() {
			return fmt.Errorf("%w: host=%q port=%d", ErrNoTarget, t.Host, t.Port)
		}
		return ErrNoTarget
	case t.Port < 0 || t.Port > 65535:
		return fmt.Errorf("%w: %d", ErrInvalidPort, t.Port)
	}
	return nil
}

func (t Target) Addr() string {
	return net.JoinHostPort(strings.TrimSpace(t.Host), strconv.Itoa(t.Port))
}

func (t Target) String() string {
	if t.IsLocal() {
		return "bin:" + t.Bin
	}
	return "tcp:" + t.Addr()
}

// Open validates target and establishes the matching Session variant.
func Open(ctx context.Context, target Target, cfg Config) (Session, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	if target.IsLocal() {
		return StartProcess(target.Bin, target.Args, cfg)
	}
	return DialTCP(ctx, target.Addr(), cfg)
}

func classifyReadErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrReadTimeout
	case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed), errors.Is(err, net.ErrClosed):
		return io.EOF
	default:
		return err
	}
}
