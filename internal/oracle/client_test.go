package oracle

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/oraclebs/internal/challenge"
	"github.com/danmuck/oraclebs/internal/testutil/sessiontest"
	"github.com/danmuck/oraclebs/internal/testutil/testlog"
	"github.com/danmuck/oraclebs/internal/transport"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pow127() *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), 127)
}

// playGame serves a challenge game over an in-memory pipe.
func playGame(t *testing.T, secret *uint256.Int) (*Client, <-chan error) {
	t.Helper()
	game, err := challenge.NewGame(secret, challenge.DefaultOptions())
	require.NoError(t, err)

	client, server := net.Pipe()
	done := make(chan error, 1)
	go func() {
		defer server.Close()
		done <- game.Play(server)
	}()

	s := transport.NewTCPSession(client, transport.DefaultConfig())
	t.Cleanup(func() { _ = s.Close() })
	return NewClient(s, nil, Config{PromptTimeout: 2 * time.Second, GuessTimeout: time.Second}), done
}

// menuResponder mimics the target: selectors get their entry prompt, any
// other line gets reply followed by the menu.
func menuResponder(reply string) sessiontest.Responder {
	return func(w string) string {
		switch w {
		case "1\n":
			return "Enter a number: "
		case "2\n":
			return "Enter secret: "
		default:
			return reply + challenge.Menu
		}
	}
}

func TestSignal(t *testing.T) {
	testlog.Start(t)
	assert.False(t, Signal{}.Parsed())
	assert.False(t, Signal{}.AtOrBelow())

	sig := Signal{Value: uint256.NewInt(1).ToBig()}
	assert.True(t, sig.Parsed())
	assert.True(t, sig.AtOrBelow())

	sig.Value.SetInt64(0)
	assert.False(t, sig.AtOrBelow())
	sig.Value.SetInt64(-3)
	assert.False(t, sig.AtOrBelow())
	sig.Value.SetInt64(7)
	assert.True(t, sig.AtOrBelow())
}

func TestQueryAgainstGame(t *testing.T) {
	testlog.Start(t)
	secret := new(uint256.Int).AddUint64(pow127(), 12345)
	c, done := playGame(t, secret)
	ctx := context.Background()

	sig, err := c.Query(ctx, secret)
	require.NoError(t, err)
	require.True(t, sig.Parsed(), "raw=%q", sig.Raw)
	require.True(t, sig.AtOrBelow())

	above := new(uint256.Int).AddUint64(secret, 1)
	sig, err = c.Query(ctx, above)
	require.NoError(t, err)
	require.True(t, sig.Parsed(), "raw=%q", sig.Raw)
	require.False(t, sig.AtOrBelow())

	sig, err = c.Query(ctx, pow127())
	require.NoError(t, err)
	require.True(t, sig.AtOrBelow())

	out, err := c.Guess(ctx, secret)
	require.NoError(t, err)
	require.Contains(t, out, "Correct!")
	require.NoError(t, <-done)
}

func TestGuessWrongAnswer(t *testing.T) {
	testlog.Start(t)
	secret := new(uint256.Int).AddUint64(pow127(), 99)
	c, done := playGame(t, secret)

	out, err := c.Guess(context.Background(), pow127())
	require.NoError(t, err)
	require.Contains(t, out, "Wrong!")
	require.NoError(t, <-done)
}

func TestQueryWireSequence(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New(challenge.Menu, menuResponder("1\n"))
	c := NewClient(s, nil, Config{PromptTimeout: time.Second})

	n := new(uint256.Int).AddUint64(pow127(), 5)
	sig, err := c.Query(context.Background(), n)
	require.NoError(t, err)
	require.True(t, sig.AtOrBelow())
	require.Equal(t, []string{"1\n", n.Dec() + "\n"}, s.Writes())
}

func TestQueryUnparsedReplyIsNotAnError(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New(challenge.Menu, func(w string) string {
		if w == "1\n" {
			return "Enter a number: "
		}
		return "the oracle is asleep\n"
	})
	s.Hangup()
	c := NewClient(s, nil, Config{PromptTimeout: time.Second})

	sig, err := c.Query(context.Background(), pow127())
	require.NoError(t, err)
	require.False(t, sig.Parsed())
	require.Contains(t, sig.Raw, "the oracle is asleep")
}

func TestReadyPromptSkipsDrain(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New(challenge.Menu, menuResponder("0\n"))
	c := NewClient(s, nil, Config{PromptTimeout: 2 * time.Second})

	start := time.Now()
	for range 3 {
		sig, err := c.Query(context.Background(), pow127())
		require.NoError(t, err)
		require.True(t, sig.Parsed())
		require.False(t, sig.AtOrBelow())
	}
	require.Less(t, time.Since(start), time.Second)
}

func TestQueryWriteFailure(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New(challenge.Menu, nil)
	require.NoError(t, s.Close())
	c := NewClient(s, nil, Config{PromptTimeout: time.Second})

	_, err := c.Query(context.Background(), pow127())
	require.ErrorIs(t, err, transport.ErrClosed)
}

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{}.WithDefaults()
	assert.Equal(t, 5*time.Second, cfg.PromptTimeout)
	assert.Equal(t, 2*time.Second, cfg.GuessTimeout)
}

func TestQueryKeepsTextReadBeforeDrainFailure(t *testing.T) {
	testlog.Start(t)
	reset := errors.New("connection reset by peer")
	s := sessiontest.New("1. Query\n2. Gue", nil)
	s.Fail(reset)
	c := NewClient(s, nil, Config{PromptTimeout: time.Second})

	sig, err := c.Query(context.Background(), pow127())
	require.ErrorIs(t, err, reset)
	assert.Equal(t, "1. Query\n2. Gue", sig.Raw)
	assert.False(t, sig.Parsed())
	assert.Empty(t, s.Writes())
}

func TestGuessKeepsPartialReply(t *testing.T) {
	testlog.Start(t)
	reset := errors.New("connection reset by peer")
	s := sessiontest.New(challenge.Menu, func(w string) string {
		if w == "2\n" {
			return "Enter secret: "
		}
		return "Corr"
	})
	s.Fail(reset)
	c := NewClient(s, nil, Config{PromptTimeout: time.Second, GuessTimeout: time.Second})

	final, err := c.Guess(context.Background(), pow127())
	require.ErrorIs(t, err, reset)
	assert.Equal(t, "Corr", final)
	assert.Equal(t, []string{"2\n", pow127().Dec() + "\n"}, s.Writes())
}
