package observability

import (
	"os"
	"strings"
	"testing"

	"github.com/danmuck/oraclebs/internal/logging"
	"github.com/danmuck/oraclebs/internal/testutil/testlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerTagsRunOnce(t *testing.T) {
	testlog.Start(t)
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()

	logging.Apply(logging.Config{Level: zerolog.DebugLevel, Bypass: true, Out: f})
	defer logging.Apply(logging.DefaultConfig(logging.ProfileTest))

	first := InitLogger("oraclebs")
	first.Info().Msg("first")
	second := InitLogger("oraclebs")
	second.Info().Msg("second")

	raw, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		require.Equal(t, 1, strings.Count(line, `"run_id"`), line)
		require.Contains(t, line, `"app":"oraclebs"`)
	}
}
