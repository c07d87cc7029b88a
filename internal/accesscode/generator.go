package accesscode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

const (
	// Alphabet is the symbol set access codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length of every generated code.
	Length = 6

	defaultMaxAttempts = 100
)

// ExistsFunc reports whether a code is already assigned to a quiz.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Observer receives the number of attempts each GenerateUnique call needed.
type Observer func(attempts int)

// Generator produces short quiz access codes.
type Generator struct {
	maxAttempts int
	randIndex   func(n int) (int, error)
	observe     Observer
}

// Options configures a Generator. Zero values fall back to defaults.
type Options struct {
	MaxAttempts int
	Observer    Observer
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator(opts Options) *Generator {
	max := opts.MaxAttempts
	if max <= 0 {
		max = defaultMaxAttempts
	}
	return &Generator{
		maxAttempts: max,
		randIndex:   cryptoIndex,
		observe:     opts.Observer,
	}
}

// MaxAttempts is the retry budget shared by callers that also retry on insert conflicts.
func (g *Generator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate returns a fresh code drawn uniformly from Alphabet.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, Length)
	for i := range buf {
		idx, err := g.randIndex(len(Alphabet))
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = Alphabet[idx]
	}
	return string(buf), nil
}

// GenerateUnique draws codes until exists reports one as free.
// The pre-check only narrows the race; the store's unique constraint is what guarantees uniqueness.
func (g *Generator) GenerateUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check access code: %w", err)
		}
		if !taken {
			g.record(attempt)
			return code, nil
		}
	}
	g.record(g.maxAttempts)
	return "", &domain.Error{
		Kind:    domain.KindCapacityExhausted,
		Message: fmt.Sprintf("no free access code after %d attempts", g.maxAttempts),
	}
}

// Valid reports whether s has the shape of an access code.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func (g *Generator) record(attempts int) {
	if g.observe != nil {
		g.observe(attempts)
	}
}

func cryptoIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
