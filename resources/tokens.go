package resources

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/apperr"
	"github.com/linesmerrill/uptime-api/auth"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/models"
)

// Tokens handles login sessions
type Tokens struct {
	UserDB databases.UserDatabase
	Auth   *auth.Authority
}

func validID(id string) bool {
	return len(id) == auth.TokenIDLength
}

// Create authenticates phone and password and mints a token. Unknown users and
// wrong passwords produce the same error.
func (t *Tokens) Create(ctx context.Context, phone, password string) (*models.Token, error) {
	phone = strings.TrimSpace(phone)
	password = strings.TrimSpace(password)
	if !validPhone(phone) || password == "" {
		return nil, apperr.New(apperr.InvalidInput, "missing required field(s)")
	}

	invalid := apperr.New(apperr.InvalidCredentials, "phone number or password is incorrect")
	user, err := t.UserDB.FindOne(ctx, phone)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperr.Wrap(apperr.InternalError, "could not read the user", err)
	}
	if !t.Auth.Matches(password, user.HashedPassword) {
		return nil, invalid
	}
	return t.Auth.NewToken(ctx, phone)
}

// Get returns a token by id. The id is itself the capability, no other check is made.
func (t *Tokens) Get(ctx context.Context, id string) (*models.Token, error) {
	id = strings.TrimSpace(id)
	if !validID(id) {
		return nil, apperr.New(apperr.InvalidInput, "missing required field")
	}
	token, err := t.Auth.DB.FindOne(ctx, id)
	if err != nil {
		return nil, storeError(err, apperr.NotFound, "specified token does not exist", "could not read the token")
	}
	return token, nil
}

// Extend resets the expiry of a live token; extend must be true
func (t *Tokens) Extend(ctx context.Context, id string, extend bool) (*models.Token, error) {
	id = strings.TrimSpace(id)
	if !validID(id) || !extend {
		return nil, apperr.New(apperr.InvalidInput, "missing required field(s) or field(s) are invalid")
	}
	return t.Auth.Extend(ctx, id)
}

// Delete removes a token
func (t *Tokens) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if !validID(id) {
		return apperr.New(apperr.InvalidInput, "missing required field")
	}
	if _, err := t.Auth.DB.FindOne(ctx, id); err != nil {
		return storeError(err, apperr.NotFound, "could not find the specified token", "could not read the token")
	}
	if err := t.Auth.DB.DeleteOne(ctx, id); err != nil {
		return storeError(err, apperr.NotFound, "could not find the specified token", "could not delete the specified token")
	}
	return nil
}

// PurgeExpired deletes tokens that expired at least grace ago and returns their ids
func (t *Tokens) PurgeExpired(ctx context.Context, grace time.Duration) ([]string, error) {
	ids, err := t.Auth.DB.Keys(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := t.Auth.Now().Add(-grace)
	var purged []string
	for _, id := range ids {
		token, err := t.Auth.DB.FindOne(ctx, id)
		if err != nil {
			if !errors.Is(err, databases.ErrNotFound) {
				zap.S().Warnw("skipping unreadable token", "id", id, "error", err)
			}
			continue
		}
		if token.ValidAt(cutoff) {
			continue
		}
		if err := t.Auth.DB.DeleteOne(ctx, id); err != nil && !errors.Is(err, databases.ErrNotFound) {
			zap.S().Warnw("could not purge expired token", "id", id, "error", err)
			continue
		}
		purged = append(purged, id)
	}
	return purged, nil
}
