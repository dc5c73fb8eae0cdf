package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ProcessSession is a Session over a spawned process. Stdout and stderr
// share one pipe so the reader sees output in the order it was written.
type ProcessSession struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	output *os.File
	chunk  int
	grace  time.Duration

	closeOnce sync.Once
	closeErr  error
}

var _ Session = (*ProcessSession)(nil)

// StartProcess spawns bin with args and wires its standard streams.
func StartProcess(bin string, args []string, cfg Config) (*ProcessSession, error) {
	cfg = cfg.WithDefaults()

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("transport: output pipe: %w", err)
	}

	//nolint:gosec // G204: the operator names the target binary.
	cmd := exec.Command(bin, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.SysProcAttr = newProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("transport: stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("transport: start %s: %w", bin, err)
	}
	// The child holds its own copy of the write end; dropping ours lets
	// the reader observe EOF when the child exits.
	_ = pw.Close()

	log.Debug().Str("bin", bin).Int("pid", cmd.Process.Pid).Msg("transport.StartProcess started")
	return &ProcessSession{
		cmd:    cmd,
		stdin:  stdin,
		output: pr,
		chunk:  cfg.ReadChunk,
		grace:  cfg.TerminateGrace,
	}, nil
}

func (s *ProcessSession) Pid() int {
	return s.cmd.Process.Pid
}

func (s *ProcessSession) Write(p []byte) error {
	if _, err := s.stdin.Write(p); err != nil {
		return fmt.Errorf("transport: process write: %w", err)
	}
	return nil
}

func (s *ProcessSession) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		return nil, ErrReadTimeout
	}
	if max <= 0 {
		max = s.chunk
	}
	// Pipes without poller support report ErrNoDeadline; those fall back to
	// a plain blocking read.
	if err := s.output.SetReadDeadline(time.Now().Add(timeout)); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		return nil, classifyReadErr(err)
	}
	buf := make([]byte, max)
	n, err := s.output.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	return nil, classifyReadErr(err)
}

// Close closes stdin, asks the process to terminate, escalates to a kill
// after the grace period and reaps it.
func (s *ProcessSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stdin.Close()

		done := make(chan error, 1)
		go func() {
			done <- s.cmd.Wait()
		}()

		if err := terminate(s.cmd.Process); err != nil {
			log.Debug().Err(err).Int("pid", s.cmd.Process.Pid).Msg("transport.ProcessSession terminate")
		}

		timer := time.NewTimer(s.grace)
		defer timer.Stop()

		var waitErr error
		select {
		case waitErr = <-done:
		case <-timer.C:
			log.Warn().Int("pid", s.cmd.Process.Pid).Dur("grace", s.grace).Msg("transport.ProcessSession kill after grace")
			_ = kill(s.cmd.Process)
			waitErr = <-done
		}
		_ = s.output.Close()

		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			s.closeErr = fmt.Errorf("transport: wait: %w", waitErr)
		}
		log.Debug().Int("pid", s.cmd.Process.Pid).Msg("transport.ProcessSession closed")
	})
	return s.closeErr
}
