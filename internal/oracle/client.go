package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/danmuck/oraclebs/internal/observability"
	"github.com/danmuck/oraclebs/internal/prompt"
	"github.com/danmuck/oraclebs/internal/reply"
	"github.com/danmuck/oraclebs/internal/transport"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SelectQuery = "1"
	SelectGuess = "2"
)

var one = big.NewInt(1)

// Signal is the decoded reply to one query.
type Signal struct {
	Raw   string
	Value *big.Int
}

// Parsed reports whether the reply held an integer.
func (s Signal) Parsed() bool {
	return s.Value != nil
}

// AtOrBelow reports whether the probe was <= secret. It is false for an
// unparsed signal; callers check Parsed first.
func (s Signal) AtOrBelow() bool {
	return s.Value != nil && s.Value.Cmp(one) >= 0
}

// Config holds the read timeout profiles.
type Config struct {
	PromptTimeout time.Duration
	GuessTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		PromptTimeout: prompt.DefaultTimeout,
		GuessTimeout:  prompt.FinalTimeout,
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.PromptTimeout <= 0 {
		c.PromptTimeout = def.PromptTimeout
	}
	if c.GuessTimeout <= 0 {
		c.GuessTimeout = def.GuessTimeout
	}
	return c
}

// Client runs query and guess exchanges over one session. It is not safe
// for concurrent use; every call advances the target's state.
type Client struct {
	session transport.Session
	reader  prompt.Reader
	cfg     Config
	log     zerolog.Logger

	// ready is set when the last read already ended at a prompt, so the
	// next exchange need not drain.
	ready bool
}

// NewClient uses a MarkerReader when reader is nil.
func NewClient(session transport.Session, reader prompt.Reader, cfg Config) *Client {
	if reader == nil {
		reader = prompt.NewMarkerReader(session)
	}
	return &Client{
		session: session,
		reader:  reader,
		cfg:     cfg.WithDefaults(),
		log:     log.Logger.With().Str("component", "oracle").Logger(),
	}
}

// Query submits n in query mode and parses the reply. An unparseable reply
// is returned as a Signal with Parsed() == false, not as an error.
func (c *Client) Query(ctx context.Context, n *uint256.Int) (Signal, error) {
	start := time.Now()
	res, err := c.exchange(ctx, SelectQuery, n, c.cfg.PromptTimeout)
	if err != nil {
		observability.RecordQuery(observability.QueryOutcomeError, time.Since(start))
		return Signal{Raw: res.Text}, err
	}

	sig := Signal{Raw: res.Text}
	sig.Value, _ = reply.ParseSignal(res.Text)
	outcome := observability.QueryOutcomeSignal
	if !sig.Parsed() {
		outcome = observability.QueryOutcomeUnparsed
	}
	observability.RecordQuery(outcome, time.Since(start))
	c.log.Trace().Str("n", n.Dec()).Str("stop", res.Stop).Str("raw", res.Text).Msg("oracle.Query reply")
	return sig, nil
}

// Guess submits n as the final answer and returns the raw reply.
func (c *Client) Guess(ctx context.Context, n *uint256.Int) (string, error) {
	res, err := c.exchange(ctx, SelectGuess, n, c.cfg.GuessTimeout)
	c.log.Debug().Str("n", n.Dec()).Str("stop", res.Stop).Msg("oracle.Guess reply")
	return res.Text, err
}

func (c *Client) exchange(ctx context.Context, selector string, n *uint256.Int, replyTimeout time.Duration) (prompt.Result, error) {
	if !c.ready {
		if res, err := c.read(ctx, c.cfg.PromptTimeout); err != nil {
			return res, fmt.Errorf("oracle: drain menu: %w", err)
		}
	}
	if err := c.sendLine(selector); err != nil {
		return prompt.Result{}, err
	}
	if res, err := c.read(ctx, c.cfg.PromptTimeout); err != nil {
		return res, fmt.Errorf("oracle: read entry prompt: %w", err)
	}
	if err := c.sendLine(n.Dec()); err != nil {
		return prompt.Result{}, err
	}
	res, err := c.read(ctx, replyTimeout)
	if err != nil {
		return res, fmt.Errorf("oracle: read reply: %w", err)
	}
	return res, nil
}

func (c *Client) read(ctx context.Context, timeout time.Duration) (prompt.Result, error) {
	res, err := c.reader.ReadUntilPrompt(ctx, timeout)
	c.ready = err == nil && res.Prompted()
	return res, err
}

func (c *Client) sendLine(line string) error {
	c.ready = false
	if err := c.session.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("oracle: send %q: %w", line, err)
	}
	return nil
}
