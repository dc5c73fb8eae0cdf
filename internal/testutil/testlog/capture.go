package testlog

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/danmuck/oraclebs/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Entry is one decoded JSON log line.
type Entry map[string]any

func (e Entry) Str(key string) string {
	s, _ := e[key].(string)
	return s
}

// Capture points the global logger at a temp file as raw JSON lines at lvl
// and returns a func reading back everything logged so far. The test logger
// is restored on cleanup.
func Capture(t *testing.T, lvl zerolog.Level) func() []Entry {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	logging.Apply(logging.Config{Level: lvl, Bypass: true, Out: f})
	t.Cleanup(func() {
		logging.Apply(logging.DefaultConfig(logging.ProfileTest))
		_ = f.Close()
	})

	return func() []Entry {
		t.Helper()
		in, err := os.Open(f.Name())
		require.NoError(t, err)
		defer in.Close()

		var entries []Entry
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			var e Entry
			require.NoError(t, json.Unmarshal(sc.Bytes(), &e), sc.Text())
			entries = append(entries, e)
		}
		require.NoError(t, sc.Err())
		return entries
	}
}

// Messages filters entries by message and level.
func Messages(entries []Entry, msg string, lvl zerolog.Level) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Str(zerolog.MessageFieldName) == msg && e.Str(zerolog.LevelFieldName) == lvl.String() {
			out = append(out, e)
		}
	}
	return out
}
