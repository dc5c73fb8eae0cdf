package challenge

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
)

const (
	SecretBits = 128

	Menu          = "1. Query\n2. Guess\nChoice: "
	NumberPrompt  = "Enter a number: "
	SecretPrompt  = "Enter secret: "
	InvalidNumber = "Invalid number\n"
	InvalidChoice = "Invalid choice\n"
	OutOfQueries  = "No more queries\n"
	WrongGuess    = "Wrong!\n"
)

var ErrInvalidSecret = errors.New("challenge: secret must be exactly 128 bits")

// Options tunes a Game.
type Options struct {
	// MaxQueries ends the session once exceeded; 0 means unlimited.
	MaxQueries int
	Flag       string
}

func DefaultOptions() Options {
	return Options{Flag: "flag{local_div_oracle}"}
}

// Game is one secret and its query budget.
type Game struct {
	secret  *uint256.Int
	opts    Options
	queries int
}

func NewGame(secret *uint256.Int, opts Options) (*Game, error) {
	if secret == nil || secret.BitLen() != SecretBits {
		return nil, ErrInvalidSecret
	}
	return &Game{secret: secret.Clone(), opts: opts}, nil
}

// ParseSecret reads a decimal secret and validates its width.
func ParseSecret(raw string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("challenge: parse secret: %w", err)
	}
	if v.BitLen() != SecretBits {
		return nil, ErrInvalidSecret
	}
	return v, nil
}

// RandomSecret draws a uniform 128-bit value with the top bit forced on.
func RandomSecret() (*uint256.Int, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("challenge: random secret: %w", err)
	}
	b[0] |= 0x80
	return new(uint256.Int).SetBytes(b[:]), nil
}

func (g *Game) Secret() *uint256.Int {
	return g.secret.Clone()
}

func (g *Game) Queries() int {
	return g.queries
}

// Answer is the query-mode reply for raw input.
func (g *Game) Answer(raw string) string {
	n, err := uint256.FromDecimal(strings.TrimSpace(raw))
	if err != nil || n.BitLen() != SecretBits {
		return InvalidNumber
	}
	return new(uint256.Int).Div(g.secret, n).Dec() + "\n"
}

// Check is the guess-mode reply for raw input.
func (g *Game) Check(raw string) (string, bool) {
	n, err := uint256.FromDecimal(strings.TrimSpace(raw))
	if err != nil || !n.Eq(g.secret) {
		return WrongGuess, false
	}
	return "Correct! " + g.opts.Flag + "\n", true
}

// Play runs the menu loop until the guess, EOF or the query budget ends it.
func (g *Game) Play(rw io.ReadWriter) error {
	in := bufio.NewReader(rw)
	for {
		if _, err := io.WriteString(rw, Menu); err != nil {
			return err
		}
		choice, err := readLine(in)
		if err != nil {
			return ignoreEOF(err)
		}

		switch choice {
		case "1":
			if g.opts.MaxQueries > 0 && g.queries >= g.opts.MaxQueries {
				_, err := io.WriteString(rw, OutOfQueries)
				return err
			}
			if _, err := io.WriteString(rw, NumberPrompt); err != nil {
				return err
			}
			raw, err := readLine(in)
			if err != nil {
				return ignoreEOF(err)
			}
			g.queries++
			if _, err := io.WriteString(rw, g.Answer(raw)); err != nil {
				return err
			}
		case "2":
			if _, err := io.WriteString(rw, SecretPrompt); err != nil {
				return err
			}
			raw, err := readLine(in)
			if err != nil {
				return ignoreEOF(err)
			}
			out, ok := g.Check(raw)
			log.Debug().Bool("correct", ok).Int("queries", g.queries).Msg("challenge.Game guess")
			_, err = io.WriteString(rw, out)
			return err
		default:
			if _, err := io.WriteString(rw, InvalidChoice); err != nil {
				return err
			}
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
