package prompt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/oraclebs/internal/testutil/sessiontest"
	"github.com/danmuck/oraclebs/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerReaderStopsAtEachMarker(t *testing.T) {
	testlog.Start(t)
	for _, marker := range DefaultMarkers() {
		s := sessiontest.New("banner\n1. Query\n"+marker+" ", nil)
		res, err := NewMarkerReader(s).ReadUntilPrompt(context.Background(), time.Second)
		require.NoError(t, err)
		assert.True(t, res.Prompted(), "marker=%q", marker)
		assert.Contains(t, res.Text, marker)
	}
}

func TestMarkerReaderAccumulatesSplitMarker(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("Cho", nil)
	r := NewMarkerReader(s)

	go func() {
		time.Sleep(50 * time.Millisecond)
		s.Feed("ice: ")
	}()
	res, err := r.ReadUntilPrompt(context.Background(), 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, StopPrompt, res.Stop)
	require.Equal(t, "Choice: ", res.Text)
}

func TestMarkerReaderTimeoutIsNotAnError(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("partial output with no prompt", nil)

	start := time.Now()
	res, err := NewMarkerReader(s).ReadUntilPrompt(context.Background(), 300*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, StopTimeout, res.Stop)
	require.Equal(t, "partial output with no prompt", res.Text)
	require.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestMarkerReaderReturnsOnClose(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("Correct! flag{x}\n", nil)
	s.Hangup()

	res, err := NewMarkerReader(s).ReadUntilPrompt(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, StopClosed, res.Stop)
	require.Equal(t, "Correct! flag{x}\n", res.Text)
}

func TestMarkerReaderEmptyRead(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("", nil)
	s.Hangup()

	res, err := NewMarkerReader(s).ReadUntilPrompt(context.Background(), time.Second)
	require.NoError(t, err)
	require.Empty(t, res.Text)
	require.False(t, res.Prompted())
}

func TestMarkerReaderCustomMarkers(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("Choice: not mine\n> ", nil)
	res, err := NewMarkerReader(s, "> ").ReadUntilPrompt(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, res.Prompted())
}

func TestMarkerReaderHonorsCancellation(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMarkerReader(s).ReadUntilPrompt(ctx, 5*time.Second)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestMarkerReaderDropsInvalidUTF8(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("\xff\xfe42\nChoice: ", nil)
	res, err := NewMarkerReader(s).ReadUntilPrompt(context.Background(), time.Second)
	require.NoError(t, err)
	require.Equal(t, "42\nChoice: ", res.Text)
}

func TestDelimiterReader(t *testing.T) {
	testlog.Start(t)
	s := sessiontest.New("Choice: 1\n", nil)
	r := NewDelimiterReader(s, "\n\n")

	go func() {
		time.Sleep(50 * time.Millisecond)
		s.Feed("\n")
	}()
	res, err := r.ReadUntilPrompt(context.Background(), 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, StopPrompt, res.Stop)
	require.Equal(t, "Choice: 1\n\n", res.Text)
}
