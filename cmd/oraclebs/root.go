package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/oraclebs/internal/logging"
	"github.com/danmuck/oraclebs/internal/observability"
	"github.com/danmuck/oraclebs/internal/oracle"
	"github.com/danmuck/oraclebs/internal/prompt"
	"github.com/danmuck/oraclebs/internal/search"
	"github.com/danmuck/oraclebs/internal/transport"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ErrRecoveryFailed = errors.New("oraclebs: failed to recover secret")

// usageError marks failures that happen before any I/O is attempted.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type flagValues struct {
	configPath     string
	host           string
	port           int
	bin            string
	args           []string
	verbose        bool
	connectTimeout time.Duration
	promptTimeout  time.Duration
	guessTimeout   time.Duration
	maxSteps       int
	framing        string
	delimiter      string
	metricsFile    string
	logLevel       string
}

func newRootCmd() *cobra.Command {
	var fv flagValues
	cmd := &cobra.Command{
		Use:   "oraclebs",
		Short: "Recover a 128-bit secret from a comparison oracle by binary search",
		Long: `oraclebs drives a div-oracle target through its text menu. Each query
submits a 128-bit number and reads back floor(secret / number); a reply of 1
or more means the number is at or below the secret. The search converges in
at most 128 queries and then submits the recovered secret as the final guess.

Targets are either remote (--host and --port) or a local executable (--bin).`,
		Example: `  oraclebs --host challenge.example.org --port 31337 --verbose
  oraclebs --bin ./challenge
  oraclebs --config oraclebs.toml --metrics-file run.prom`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, fv)
			if err != nil {
				return &usageError{err: err}
			}
			if err := cfg.Target.Validate(); err != nil {
				_ = cmd.Usage()
				return &usageError{err: err}
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&fv.configPath, "config", "c", "", "TOML config file")
	f.StringVar(&fv.host, "host", "", "remote host")
	f.IntVar(&fv.port, "port", 0, "remote port")
	f.StringVar(&fv.bin, "bin", "", "path to local binary")
	f.StringArrayVar(&fv.args, "arg", nil, "argument passed to the local binary (repeatable)")
	f.BoolVarP(&fv.verbose, "verbose", "v", false, "log every probe and range")
	f.DurationVar(&fv.connectTimeout, "connect-timeout", 0, "TCP connect timeout (default 10s)")
	f.DurationVar(&fv.promptTimeout, "prompt-timeout", 0, "menu/query read timeout (default 5s)")
	f.DurationVar(&fv.guessTimeout, "guess-timeout", 0, "final guess read timeout (default 2s)")
	f.IntVar(&fv.maxSteps, "max-steps", 0, "abort after this many queries (default 2000)")
	f.StringVar(&fv.framing, "framing", "", "prompt framing: markers | delimiter")
	f.StringVar(&fv.delimiter, "delimiter", "", "message delimiter for delimiter framing")
	f.StringVar(&fv.metricsFile, "metrics-file", "", "write Prometheus text metrics here after the run")
	f.StringVar(&fv.logLevel, "log-level", "", "log level: trace | debug | info | warn | error | off")
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		_ = c.Usage()
		return &usageError{err: err}
	})
	return cmd
}

// resolveConfig layers changed flags over the config file over defaults.
func resolveConfig(cmd *cobra.Command, fv flagValues) (runConfig, error) {
	cfg := defaultRunConfig()
	if fv.configPath != "" {
		var err error
		if cfg, err = loadRunConfig(fv.configPath); err != nil {
			return runConfig{}, err
		}
	}

	f := cmd.Flags()
	if f.Changed("host") || f.Changed("port") || f.Changed("bin") {
		cfg.Target = transport.Target{Args: cfg.Target.Args}
	}
	if f.Changed("host") {
		cfg.Target.Host = fv.host
	}
	if f.Changed("port") {
		cfg.Target.Port = fv.port
	}
	if f.Changed("bin") {
		cfg.Target.Bin = fv.bin
	}
	if f.Changed("arg") {
		cfg.Target.Args = fv.args
	}
	if f.Changed("verbose") {
		cfg.Search.Verbose = fv.verbose
	}
	if f.Changed("connect-timeout") {
		cfg.Transport.ConnectTimeout = fv.connectTimeout
	}
	if f.Changed("prompt-timeout") {
		cfg.Oracle.PromptTimeout = fv.promptTimeout
	}
	if f.Changed("guess-timeout") {
		cfg.Oracle.GuessTimeout = fv.guessTimeout
	}
	if f.Changed("max-steps") {
		cfg.Search.MaxSteps = fv.maxSteps
	}
	if f.Changed("framing") {
		cfg.Framing = fv.framing
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = fv.delimiter
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = fv.metricsFile
	}
	if f.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	return cfg, cfg.validate()
}

func run(ctx context.Context, out io.Writer, cfg runConfig) (err error) {
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
		logging.SetLevel(lvl)
	}
	logger := observability.InitLogger("oraclebs")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsFile != "" {
		defer func() {
			if werr := observability.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger.Warn().Err(werr).Str("path", cfg.MetricsFile).Msg("oraclebs write metrics")
			}
		}()
	}

	if cfg.Target.IsLocal() {
		fmt.Fprintln(out, "[*] Starting local binary...")
	} else {
		fmt.Fprintln(out, "[*] Connecting remote...")
	}
	session, err := transport.Open(ctx, cfg.Target, cfg.Transport)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Target, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("oraclebs close session")
		}
	}()
	logger.Info().Str("target", cfg.Target.String()).Str("framing", cfg.Framing).Msg("oraclebs session open")

	client := oracle.NewClient(session, newReader(cfg, session), cfg.Oracle)
	res, err := search.NewDriver(client, cfg.Search).Run(ctx)
	if err != nil {
		fmt.Fprint(out, search.Diagnose(res, err))
		fmt.Fprintln(out, "[-] Failed to recover secret.")
		return fmt.Errorf("%w: %w", ErrRecoveryFailed, err)
	}
	fmt.Fprintf(out, "[+] Found candidate secret = %s in %d queries\n", res.Secret.Dec(), res.Steps)

	if err := submitGuess(ctx, out, client, res.Secret); err != nil {
		return err
	}
	log.Debug().Int("steps", res.Steps).Msg("oraclebs done")
	return nil
}

// submitGuess prints whatever the target replied, even when the read failed
// partway.
func submitGuess(ctx context.Context, out io.Writer, client *oracle.Client, secret *uint256.Int) error {
	fmt.Fprintln(out, "[*] Sending guess...")
	final, err := client.Guess(ctx, secret)
	if final != "" {
		fmt.Fprintln(out, final)
	}
	if err != nil {
		return fmt.Errorf("send guess: %w", err)
	}
	return nil
}

func newReader(cfg runConfig, session transport.Session) prompt.Reader {
	if cfg.Framing == FramingDelimiter {
		return prompt.NewDelimiterReader(session, cfg.Delimiter)
	}
	return prompt.NewMarkerReader(session)
}
