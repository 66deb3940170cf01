// Package shareid allocates short public share identifiers. Codes are drawn
// from a 62-character alphanumeric alphabet and checked for collisions
// against the persistent store through an injected existence callback.
package shareid

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultLength keeps codes short enough to read aloud while making a
	// collision across any realistic project count vanishingly unlikely.
	DefaultLength = 8

	// DefaultMaxAttempts bounds the regenerate-on-collision loop. Hitting
	// the bound almost certainly means alphabet/length misconfiguration
	// and should trigger alerting, not a longer loop.
	DefaultMaxAttempts = 10
)

// ErrCollisionExhausted is returned when every generated candidate collided
// within the attempt bound.
var ErrCollisionExhausted = errors.New("share id allocation exhausted retry attempts")

var alphabetLen = big.NewInt(int64(len(alphabet)))

// Generate returns a random identifier of the given length, each character
// drawn uniformly from the 62-character alphanumeric alphabet.
func Generate(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

// AllocateUnique generates candidates until exists reports a free one, up to
// maxAttempts tries (DefaultMaxAttempts when maxAttempts <= 0). Exceeding the
// bound returns ErrCollisionExhausted rather than looping forever.
func AllocateUnique(ctx context.Context, length, maxAttempts int, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := Generate(length)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check share id existence: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCollisionExhausted
}
