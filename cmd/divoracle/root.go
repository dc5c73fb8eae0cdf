package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/oraclebs/internal/challenge"
	"github.com/danmuck/oraclebs/internal/observability"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	listen     string
	secret     string
	maxQueries int
	flag       string
}

type stdio struct {
	io.Reader
	io.Writer
}

func newRootCmd() *cobra.Command {
	opts := options{flag: challenge.DefaultOptions().Flag}
	cmd := &cobra.Command{
		Use:   "divoracle",
		Short: "Local div-oracle challenge target",
		Long: `divoracle holds a random 128-bit secret and answers floor(secret / n) for
128-bit queries through a numbered menu. Without --listen it plays one game
on stdin/stdout, which is what oraclebs --bin expects; with --listen it plays
a fresh game per TCP connection.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var secret *uint256.Int
			if opts.secret != "" {
				v, err := challenge.ParseSecret(opts.secret)
				if err != nil {
					return err
				}
				secret = v
			}
			gameOpts := challenge.Options{MaxQueries: opts.maxQueries, Flag: opts.flag}
			if opts.listen == "" {
				return playStdio(cmd.InOrStdin(), cmd.OutOrStdout(), secret, gameOpts)
			}
			return serve(cmd.Context(), opts.listen, secret, gameOpts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.listen, "listen", "l", "", "serve TCP on this address instead of stdin/stdout")
	f.StringVar(&opts.secret, "secret", "", "fixed decimal secret (default: random per game)")
	f.IntVar(&opts.maxQueries, "max-queries", 0, "end the game after this many queries (0: unlimited)")
	f.StringVar(&opts.flag, "flag", opts.flag, "text revealed on a correct guess")
	return cmd
}

// playStdio keeps logging off the game stream; a spawning client usually
// merges stderr into stdout.
func playStdio(in io.Reader, out io.Writer, secret *uint256.Int, opts challenge.Options) error {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if secret == nil {
		var err error
		if secret, err = challenge.RandomSecret(); err != nil {
			return err
		}
	}
	game, err := challenge.NewGame(secret, opts)
	if err != nil {
		return err
	}
	return game.Play(stdio{in, out})
}

func serve(ctx context.Context, addr string, secret *uint256.Int, opts challenge.Options) error {
	logger := observability.InitLogger("divoracle")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	logger.Info().Str("addr", ln.Addr().String()).Bool("fixed_secret", secret != nil).Msg("divoracle listening")

	srv := &challenge.Server{Secret: secret, Options: opts}
	return srv.Serve(ctx, ln)
}
