// Package auth derives password digests and mints, verifies and extends the
// short-lived tokens that guard every protected resource operation.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"

	"github.com/linesmerrill/uptime-api/apperr"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/models"
)

const (
	// TokenIDLength is the length of token and check ids
	TokenIDLength = 20
	// DefaultLifetime is how long a fresh or extended token lives
	DefaultLifetime = time.Hour

	alphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	iterations = 4096
	keyLength  = 32
)

// Authority hashes passwords and manages tokens in the tokens collection
type Authority struct {
	DB       databases.TokenDatabase
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// Option configures an Authority
type Option func(*Authority)

// WithLifetime overrides the token lifetime
func WithLifetime(d time.Duration) Option {
	return func(a *Authority) {
		if d > 0 {
			a.lifetime = d
		}
	}
}

// WithClock overrides the clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		a.now = now
	}
}

// NewAuthority returns an Authority keyed with the process-wide hashing secret
func NewAuthority(db databases.TokenDatabase, secret string, opts ...Option) *Authority {
	a := &Authority{
		DB:       db,
		secret:   []byte(secret),
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Now returns the authority's current time
func (a *Authority) Now() time.Time {
	return a.now()
}

// Lifetime returns the token lifetime
func (a *Authority) Lifetime() time.Duration {
	return a.lifetime
}

// Hash returns the hex digest of password. Equal inputs always give equal digests.
func (a *Authority) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("cannot hash an empty password")
	}
	key := pbkdf2.Key([]byte(password), a.secret, iterations, keyLength, sha256.New)
	return hex.EncodeToString(key), nil
}

// Matches reports whether password hashes to digest, in constant time
func (a *Authority) Matches(password, digest string) bool {
	h, err := a.Hash(password)
	if err != nil || digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h), []byte(digest)) == 1
}

// RandomString returns n characters drawn from lowercase letters and digits
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("length must be positive")
	}
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

func (a *Authority) expiry() int64 {
	return a.now().Add(a.lifetime).UnixMilli()
}

// NewToken mints and persists a token for phone
func (a *Authority) NewToken(ctx context.Context, phone string) (*models.Token, error) {
	id, err := RandomString(TokenIDLength)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "could not create the new token", err)
	}
	token := models.Token{ID: id, Phone: phone, Expires: a.expiry()}
	if err := a.DB.InsertOne(ctx, token); err != nil {
		if errors.Is(err, databases.ErrAlreadyExists) {
			zap.S().Warnw("token id collision", "id", id)
		}
		return nil, apperr.Wrap(apperr.InternalError, "could not create the new token", err)
	}
	return &token, nil
}

// Verify reports whether id names an unexpired token bound to phone. It never fails,
// any lookup problem is simply a negative answer.
func (a *Authority) Verify(ctx context.Context, id, phone string) bool {
	if id == "" || phone == "" {
		return false
	}
	token, err := a.DB.FindOne(ctx, id)
	if err != nil {
		if !errors.Is(err, databases.ErrNotFound) && !errors.Is(err, databases.ErrInvalidKey) {
			zap.S().Warnw("token lookup failed during verification", "error", err)
		}
		return false
	}
	return token.Phone == phone && token.ValidAt(a.now())
}

// Resolve returns the unexpired token named by id
func (a *Authority) Resolve(ctx context.Context, id string) (*models.Token, error) {
	if id == "" {
		return nil, apperr.New(apperr.Unauthorized, "missing required token in header")
	}
	token, err := a.DB.FindOne(ctx, id)
	if err != nil {
		if !errors.Is(err, databases.ErrNotFound) && !errors.Is(err, databases.ErrInvalidKey) {
			zap.S().Warnw("token lookup failed during resolution", "error", err)
		}
		return nil, apperr.Wrap(apperr.Unauthorized, "missing required token in header, or token is invalid", err)
	}
	if !token.ValidAt(a.now()) {
		return nil, apperr.New(apperr.Unauthorized, "token has expired")
	}
	return token, nil
}

// Extend pushes the expiry of a live token forward by the lifetime. Dead tokens stay dead.
func (a *Authority) Extend(ctx context.Context, id string) (*models.Token, error) {
	token, err := a.DB.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) || errors.Is(err, databases.ErrInvalidKey) {
			return nil, apperr.Wrap(apperr.NotFound, "specified token does not exist", err)
		}
		return nil, apperr.Wrap(apperr.InternalError, "could not read the token", err)
	}
	if !token.ValidAt(a.now()) {
		return nil, apperr.New(apperr.Expired, "the token has already expired and cannot be extended")
	}
	token.Expires = a.expiry()
	if err := a.DB.UpdateOne(ctx, *token); err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, "specified token does not exist", err)
		}
		return nil, apperr.Wrap(apperr.InternalError, "could not update the token's expiration", err)
	}
	return token, nil
}
