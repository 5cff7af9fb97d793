package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/apperr"
	"github.com/linesmerrill/uptime-api/auth"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/models"
)

// Checks handles uptime check definitions and their ownership lists
type Checks struct {
	DB        databases.CheckDatabase
	UserDB    databases.UserDatabase
	Auth      *auth.Authority
	MaxChecks int
	locks     *keyedMutex
}

// Create stores a new check for the token's owner and appends it to the owner's list.
// When the owner cannot be updated the check is removed again so no orphan is left.
func (c *Checks) Create(ctx context.Context, tokenID string, fields CheckFields) (*models.Check, error) {
	if err := fields.validate(true); err != nil {
		return nil, err
	}
	token, err := c.Auth.Resolve(ctx, strings.TrimSpace(tokenID))
	if err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(token.Phone)
	defer unlock()

	user, err := c.UserDB.FindOne(ctx, token.Phone)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Forbidden, "the token's user does not exist", err)
		}
		return nil, apperr.Wrap(apperr.InternalError, "could not read the user", err)
	}
	if len(user.Checks) >= c.MaxChecks {
		return nil, apperr.New(apperr.QuotaExceeded, fmt.Sprintf("the user already has the maximum number of checks (%d)", c.MaxChecks))
	}

	id, err := auth.RandomString(auth.TokenIDLength)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "could not create the new check", err)
	}
	check := models.Check{
		ID:             id,
		UserPhone:      user.Phone,
		Protocol:       *fields.Protocol,
		URL:            *fields.URL,
		Method:         *fields.Method,
		SuccessCodes:   fields.SuccessCodes,
		TimeoutSeconds: *fields.TimeoutSeconds,
	}
	if err := c.DB.InsertOne(ctx, check); err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "could not create the new check", err)
	}

	user.Checks = append(user.Checks, id)
	if err := c.UserDB.UpdateOne(ctx, *user); err != nil {
		if derr := c.DB.DeleteOne(ctx, id); derr != nil {
			zap.S().Errorw("orphaned check left behind, reconciliation will remove it",
				"check", id, "phone", user.Phone, "error", derr)
		}
		return nil, apperr.Wrap(apperr.InternalError, "could not update the user with the new check", err)
	}
	return &check, nil
}

// load reads a check and verifies the token against its owner
func (c *Checks) load(ctx context.Context, id, tokenID string) (*models.Check, error) {
	id = strings.TrimSpace(id)
	if !validID(id) {
		return nil, apperr.New(apperr.InvalidInput, "missing required field")
	}
	check, err := c.DB.FindOne(ctx, id)
	if err != nil {
		return nil, storeError(err, apperr.NotFound, "the specified check does not exist", "could not read the check")
	}
	if !c.Auth.Verify(ctx, strings.TrimSpace(tokenID), check.UserPhone) {
		return nil, errBadToken
	}
	return check, nil
}

// Get returns a check to its owner
func (c *Checks) Get(ctx context.Context, id, tokenID string) (*models.Check, error) {
	return c.load(ctx, id, tokenID)
}

// Update applies the supplied fields to an existing check under the owner's lock
func (c *Checks) Update(ctx context.Context, id, tokenID string, fields CheckFields) (*models.Check, error) {
	if !validID(strings.TrimSpace(id)) {
		return nil, apperr.New(apperr.InvalidInput, "missing required field")
	}
	if fields.empty() {
		return nil, apperr.New(apperr.InvalidInput, "missing fields to update")
	}
	if err := fields.validate(false); err != nil {
		return nil, err
	}
	check, err := c.load(ctx, id, tokenID)
	if err != nil {
		return nil, err
	}

	// a delete holding the owner lock must not see its check written back
	unlock := c.locks.Lock(check.UserPhone)
	defer unlock()
	check, err = c.DB.FindOne(ctx, check.ID)
	if err != nil {
		return nil, storeError(err, apperr.NotFound, "the specified check does not exist", "could not read the check")
	}

	if fields.Protocol != nil {
		check.Protocol = *fields.Protocol
	}
	if fields.URL != nil {
		check.URL = *fields.URL
	}
	if fields.Method != nil {
		check.Method = *fields.Method
	}
	if fields.SuccessCodes != nil {
		check.SuccessCodes = fields.SuccessCodes
	}
	if fields.TimeoutSeconds != nil {
		check.TimeoutSeconds = *fields.TimeoutSeconds
	}
	if err := c.DB.UpdateOne(ctx, *check); err != nil {
		return nil, storeError(err, apperr.NotFound, "the specified check does not exist", "could not update the check")
	}
	return check, nil
}

// Delete removes a check and then drops it from the owner's list
func (c *Checks) Delete(ctx context.Context, id, tokenID string) error {
	check, err := c.load(ctx, id, tokenID)
	if err != nil {
		return err
	}

	unlock := c.locks.Lock(check.UserPhone)
	defer unlock()

	if err := c.DB.DeleteOne(ctx, check.ID); err != nil {
		return storeError(err, apperr.NotFound, "the specified check does not exist", "could not delete the check")
	}

	user, err := c.UserDB.FindOne(ctx, check.UserPhone)
	if err != nil {
		return apperr.Wrap(apperr.InternalError, "could not find the user who created the check, so could not remove the check from the list of checks on the user object", err)
	}
	remaining := make([]string, 0, len(user.Checks))
	for _, cid := range user.Checks {
		if cid != check.ID {
			remaining = append(remaining, cid)
		}
	}
	if len(remaining) == len(user.Checks) {
		return apperr.New(apperr.InconsistentState, "could not find the check on the user object, so could not remove it")
	}
	user.Checks = remaining
	if err := c.UserDB.UpdateOne(ctx, *user); err != nil {
		return apperr.Wrap(apperr.InternalError, "could not update the user", err)
	}
	return nil
}

// List returns the caller's checks in the order they were created
func (c *Checks) List(ctx context.Context, phone, tokenID string) ([]models.Check, error) {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) {
		return nil, apperr.New(apperr.InvalidInput, "missing required field")
	}
	if !c.Auth.Verify(ctx, strings.TrimSpace(tokenID), phone) {
		return nil, errBadToken
	}
	user, err := c.UserDB.FindOne(ctx, phone)
	if err != nil {
		return nil, storeError(err, apperr.NotFound, "the specified user does not exist", "could not read the user")
	}

	checks := make([]models.Check, 0, len(user.Checks))
	for _, id := range user.Checks {
		check, err := c.DB.FindOne(ctx, id)
		if err != nil {
			zap.S().Warnw("skipping unreadable check", "phone", phone, "check", id, "error", err)
			continue
		}
		checks = append(checks, *check)
	}
	return checks, nil
}

// Reconcile deletes checks that no user lists, either because the owner is gone
// or because a create or delete stopped half way. It returns the removed ids.
func (c *Checks) Reconcile(ctx context.Context) ([]string, error) {
	ids, err := c.DB.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		check, err := c.DB.FindOne(ctx, id)
		if err != nil {
			if !errors.Is(err, databases.ErrNotFound) {
				zap.S().Warnw("skipping unreadable check during reconciliation", "check", id, "error", err)
			}
			continue
		}
		orphan, err := c.removeIfOrphan(ctx, check)
		if err != nil {
			zap.S().Warnw("could not reconcile check", "check", id, "error", err)
			continue
		}
		if orphan {
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		zap.S().Infow("removed orphaned checks", "count", len(removed), "checks", removed)
	}
	return removed, nil
}

func (c *Checks) removeIfOrphan(ctx context.Context, check *models.Check) (bool, error) {
	unlock := c.locks.Lock(check.UserPhone)
	defer unlock()

	user, err := c.UserDB.FindOne(ctx, check.UserPhone)
	switch {
	case errors.Is(err, databases.ErrNotFound):
	case err != nil:
		return false, err
	case user.HasCheck(check.ID):
		return false, nil
	}
	if err := c.DB.DeleteOne(ctx, check.ID); err != nil && !errors.Is(err, databases.ErrNotFound) {
		return false, err
	}
	return true, nil
}
