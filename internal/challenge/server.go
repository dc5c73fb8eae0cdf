package challenge

import (
	"context"
	"errors"
	"net"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Server plays one Game per accepted connection.
type Server struct {
	// Secret fixes the secret for every connection; nil draws a fresh one
	// per connection.
	Secret  *uint256.Int
	Options Options
}

func (s *Server) newGame() (*Game, error) {
	secret := s.Secret
	if secret == nil {
		var err error
		if secret, err = RandomSecret(); err != nil {
			return nil, err
		}
	}
	return NewGame(secret, s.Options)
}

// Serve accepts until ctx is cancelled or ln fails, then waits for every
// connection to finish. Open connections are closed on cancellation.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ignoreClosed(ln.Close())
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			g.Go(func() error {
				s.handle(ctx, conn)
				return nil
			})
		}
	})

	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()
	defer conn.Close()

	id := uuid.NewString()
	logger := log.With().Str("conn_id", id).Str("remote", conn.RemoteAddr().String()).Logger()

	game, err := s.newGame()
	if err != nil {
		logger.Error().Err(err).Msg("challenge.Server new game")
		return
	}
	logger.Info().Msg("challenge.Server connection opened")
	if err := game.Play(conn); err != nil && ctx.Err() == nil {
		logger.Warn().Err(err).Msg("challenge.Server play")
	}
	logger.Info().Int("queries", game.Queries()).Msg("challenge.Server connection closed")
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
