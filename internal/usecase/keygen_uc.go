package usecase

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
)

var _ KeyGenerator = (*keyGenUC)(nil)

// KeyGenerator produces key values that no stored key has ever used.
type KeyGenerator interface {
	GenerateUnique(ctx context.Context, length int) (string, error)
}

const defaultKeyAttempts = 16

// byteCeiling is the largest multiple of len(KeyAlphabet) that fits in a byte;
// bytes at or above it are discarded so every symbol is equally likely.
var byteCeiling = byte(256 - 256%len(model.KeyAlphabet))

type keyGenUC struct {
	keys        repository.AccessKeyRepository
	maxAttempts int
	random      func(b []byte) (int, error)
	log         *zerolog.Logger
}

func NewKeyGenerator(keys repository.AccessKeyRepository, maxAttempts int, logger *zerolog.Logger) *keyGenUC {
	if maxAttempts <= 0 {
		maxAttempts = defaultKeyAttempts
	}
	return &keyGenUC{keys: keys, maxAttempts: maxAttempts, random: rand.Read, log: logger}
}

func (g *keyGenUC) GenerateUnique(ctx context.Context, length int) (string, error) {
	if length <= 0 {
		length = model.DefaultKeyLength
	}
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate, err := g.draw(length)
		if err != nil {
			return "", err
		}
		taken, err := g.keys.Exists(ctx, repository.NoTX, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		g.log.Debug().Int("attempt", attempt).Msg("key collision, regenerating")
	}
	return "", fmt.Errorf("%w: %d attempts at length %d", domain.ErrExhaustedKeySpace, g.maxAttempts, length)
}

func (g *keyGenUC) draw(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := g.random(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= byteCeiling {
				continue
			}
			out = append(out, model.KeyAlphabet[int(b)%len(model.KeyAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
