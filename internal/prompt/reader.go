package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/danmuck/oraclebs/internal/transport"
)

const (
	MarkerChoice = "Choice:"
	MarkerNumber = "Enter a number"
	MarkerSecret = "Enter secret"

	// DefaultTimeout covers menu and query exchanges.
	DefaultTimeout = 5 * time.Second
	// FinalTimeout covers the reply to the final guess.
	FinalTimeout = 2 * time.Second

	// pollInterval caps a single read so cancellation is observed promptly.
	pollInterval = 250 * time.Millisecond
)

// Stop reasons.
const (
	StopPrompt  = "prompt"
	StopClosed  = "closed"
	StopTimeout = "timeout"
)

func DefaultMarkers() []string {
	return []string{MarkerChoice, MarkerNumber, MarkerSecret}
}

// Result is the text accumulated by one read and why the read stopped.
type Result struct {
	Text string
	Stop string
}

// Prompted reports whether the far end is known to be waiting for input.
func (r Result) Prompted() bool {
	return r.Stop == StopPrompt
}

// Reader reads from the session until the far end looks ready for input.
type Reader interface {
	ReadUntilPrompt(ctx context.Context, timeout time.Duration) (Result, error)
}

// MarkerReader stops once the accumulated text contains any marker.
type MarkerReader struct {
	session transport.Session
	markers [][]byte
}

var _ Reader = (*MarkerReader)(nil)

// NewMarkerReader uses DefaultMarkers when markers is empty.
func NewMarkerReader(session transport.Session, markers ...string) *MarkerReader {
	if len(markers) == 0 {
		markers = DefaultMarkers()
	}
	m := make([][]byte, 0, len(markers))
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		m = append(m, []byte(marker))
	}
	return &MarkerReader{session: session, markers: m}
}

func (r *MarkerReader) ReadUntilPrompt(ctx context.Context, timeout time.Duration) (Result, error) {
	return readLoop(ctx, r.session, timeout, func(buf []byte) bool {
		for _, m := range r.markers {
			if bytes.Contains(buf, m) {
				return true
			}
		}
		return false
	})
}

// DelimiterReader stops once the accumulated text ends with delimiter.
type DelimiterReader struct {
	session   transport.Session
	delimiter []byte
}

var _ Reader = (*DelimiterReader)(nil)

func NewDelimiterReader(session transport.Session, delimiter string) *DelimiterReader {
	return &DelimiterReader{session: session, delimiter: []byte(delimiter)}
}

func (r *DelimiterReader) ReadUntilPrompt(ctx context.Context, timeout time.Duration) (Result, error) {
	return readLoop(ctx, r.session, timeout, func(buf []byte) bool {
		return len(r.delimiter) > 0 && bytes.HasSuffix(buf, r.delimiter)
	})
}

func readLoop(ctx context.Context, session transport.Session, timeout time.Duration, ready func([]byte) bool) (Result, error) {
	var buf bytes.Buffer
	deadline := time.Now().Add(timeout)
	result := func(stop string) Result {
		return Result{Text: decode(buf.Bytes()), Stop: stop}
	}

	for {
		if err := ctx.Err(); err != nil {
			return result(StopTimeout), err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return result(StopTimeout), nil
		}

		data, err := session.ReadAvailable(0, min(remaining, pollInterval))
		buf.Write(data)
		if len(data) > 0 && ready(buf.Bytes()) {
			return result(StopPrompt), nil
		}
		switch {
		case err == nil, errors.Is(err, transport.ErrReadTimeout):
		case errors.Is(err, io.EOF):
			return result(StopClosed), nil
		default:
			return result(StopClosed), err
		}
	}
}

// decode drops bytes that are not valid UTF-8.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "")
}
