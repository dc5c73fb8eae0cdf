package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/oraclebs/internal/observability"
	"github.com/danmuck/oraclebs/internal/oracle"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnparseableReply = errors.New("search: unparseable oracle reply")
	ErrStepLimit        = errors.New("search: step limit exceeded")
)

// ReplyError reports the reply that could not be decoded.
type ReplyError struct {
	Step  int
	Probe uint256.Int
	Raw   string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("search: step %d: no integer in reply to %s", e.Step, e.Probe.Dec())
}

func (e *ReplyError) Unwrap() error {
	return ErrUnparseableReply
}

// Oracle answers whether a probe is at or below the secret.
type Oracle interface {
	Query(ctx context.Context, n *uint256.Int) (oracle.Signal, error)
}

type Config struct {
	MaxSteps int
	// Verbose promotes per-step logging to info level.
	Verbose bool
}

func DefaultConfig() Config {
	return Config{MaxSteps: 2000}
}

func (c Config) WithDefaults() Config {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultConfig().MaxSteps
	}
	return c
}

// Step describes one completed query.
type Step struct {
	N      int
	Probe  uint256.Int
	Before Range
	After  Range
}

// Result is the outcome of a run. Secret is nil unless the run converged.
type Result struct {
	Secret    *uint256.Int
	Steps     int
	LastReply string
}

type Driver struct {
	oracle Oracle
	cfg    Config
	log    zerolog.Logger

	// OnStep, when set, is called after every successful narrowing.
	OnStep func(Step)
}

func NewDriver(o Oracle, cfg Config) *Driver {
	return &Driver{
		oracle: o,
		cfg:    cfg.WithDefaults(),
		log:    log.Logger.With().Str("component", "search").Logger(),
	}
}

// Run searches until one candidate remains or the run aborts.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	res, err := d.run(ctx)
	if err != nil {
		observability.RecordSearch(observability.RunResultFailed, res.Steps)
		return res, err
	}
	observability.RecordSearch(observability.RunResultRecovered, res.Steps)
	d.log.Info().Str("secret", res.Secret.Dec()).Int("steps", res.Steps).Msg("search.Driver found candidate secret")
	return res, nil
}

func (d *Driver) run(ctx context.Context) (Result, error) {
	var res Result
	r := FullRange()

	for !r.Done() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		probe := r.Probe()
		d.stepEvent().
			Int("step", res.Steps).
			Str("probe", probe.Dec()).
			Str("low", r.Low.Dec()).
			Str("high", r.High.Dec()).
			Msg("search.Driver query")

		sig, err := d.oracle.Query(ctx, &probe)
		res.Steps++
		res.LastReply = sig.Raw
		if err != nil {
			return res, fmt.Errorf("search: step %d: %w", res.Steps, err)
		}
		if !sig.Parsed() {
			return res, &ReplyError{Step: res.Steps, Probe: probe, Raw: sig.Raw}
		}

		next := r.Narrow(probe, sig.AtOrBelow())
		if d.OnStep != nil {
			d.OnStep(Step{N: res.Steps, Probe: probe, Before: r, After: next})
		}
		r = next

		if res.Steps > d.cfg.MaxSteps {
			return res, fmt.Errorf("%w: %d steps, range %s", ErrStepLimit, res.Steps, r)
		}
	}

	secret := r.Low
	res.Secret = &secret
	return res, nil
}

func (d *Driver) stepEvent() *zerolog.Event {
	if d.cfg.Verbose {
		return d.log.Info()
	}
	return d.log.Debug()
}

// Diagnose renders a failed run for the operator.
func Diagnose(res Result, err error) string {
	var sb strings.Builder
	var replyErr *ReplyError
	switch {
	case errors.As(err, &replyErr):
		fmt.Fprintf(&sb, "[!] Couldn't parse oracle response at step %d; stopping. Raw output:\n", replyErr.Step)
		sb.WriteString(replyErr.Raw)
	case errors.Is(err, ErrStepLimit):
		fmt.Fprintf(&sb, "[!] Too many steps (%d), aborting.\n", res.Steps)
		if res.LastReply != "" {
			sb.WriteString("Last output:\n")
			sb.WriteString(res.LastReply)
		}
	default:
		fmt.Fprintf(&sb, "[!] Search failed after %d steps: %v\n", res.Steps, err)
		if res.LastReply != "" {
			sb.WriteString("Last output:\n")
			sb.WriteString(res.LastReply)
		}
	}
	return sb.String()
}
