package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/storefront/storefront/internal/shared"
)

const (
	// DefaultHashCost is the bcrypt work factor used for account passwords.
	DefaultHashCost = 10
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// ErrPasswordTooLong reports a password bcrypt cannot hash. It wraps
// shared.ErrValidation.
var ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", shared.ErrValidation, MaxPasswordBytes)

// PasswordHasher hashes and verifies passwords with bcrypt. The number of
// concurrent hash operations is bounded so a login burst queues instead of
// saturating every core.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPasswordHasher constructs a PasswordHasher. A non-positive concurrency
// defaults to twice GOMAXPROCS.
func NewPasswordHasher(cost int, concurrency int64) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	if concurrency <= 0 {
		concurrency = int64(2 * runtime.GOMAXPROCS(0))
	}
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(concurrency)}
}

// Hash returns a salted bcrypt digest of plaintext. The limit is in bytes, so
// multi-byte characters count more than once.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests and a
// cancelled wait both yield false.
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
