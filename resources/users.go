package resources

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/apperr"
	"github.com/linesmerrill/uptime-api/auth"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/models"
)

// Users handles signup and profile operations
type Users struct {
	DB      databases.UserDatabase
	CheckDB databases.CheckDatabase
	Auth    *auth.Authority
	locks   *keyedMutex
}

// Create validates the signup fields and stores a new user with a hashed password
func (u *Users) Create(ctx context.Context, in NewUser) (*models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Password = strings.TrimSpace(in.Password)
	if in.FirstName == "" || in.LastName == "" || !validPhone(in.Phone) || in.Password == "" || !in.TOSAgreement {
		return nil, apperr.New(apperr.InvalidInput, "missing required fields")
	}

	// early answer only, the atomic create below is the real uniqueness guard
	_, err := u.DB.FindOne(ctx, in.Phone)
	switch {
	case err == nil, errors.Is(err, databases.ErrCorruptData):
		return nil, apperr.New(apperr.Conflict, "a user with that phone number already exists")
	case !errors.Is(err, databases.ErrNotFound):
		return nil, apperr.Wrap(apperr.InternalError, "could not create the new user", err)
	}

	hashed, err := u.Auth.Hash(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "could not hash the user's password", err)
	}
	user := models.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Phone:          in.Phone,
		HashedPassword: hashed,
		TOSAgreement:   true,
	}
	if err := u.DB.InsertOne(ctx, user); err != nil {
		if errors.Is(err, databases.ErrAlreadyExists) {
			return nil, apperr.Wrap(apperr.Conflict, "a user with that phone number already exists", err)
		}
		return nil, apperr.Wrap(apperr.InternalError, "could not create the new user", err)
	}
	public := user.Public()
	return &public, nil
}

// Get returns the user without its password digest
func (u *Users) Get(ctx context.Context, phone, token string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) {
		return nil, apperr.New(apperr.InvalidInput, "missing required field")
	}
	if !u.Auth.Verify(ctx, token, phone) {
		return nil, errBadToken
	}
	user, err := u.DB.FindOne(ctx, phone)
	if err != nil {
		return nil, storeError(err, apperr.NotFound, "the specified user does not exist", "could not read the user")
	}
	public := user.Public()
	return &public, nil
}

// Update applies the supplied fields, re-hashing the password if one is given
func (u *Users) Update(ctx context.Context, phone, token string, in UserUpdate) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) {
		return nil, apperr.New(apperr.InvalidInput, "missing required field")
	}
	if in.empty() {
		return nil, apperr.New(apperr.InvalidInput, "missing fields to update")
	}
	if !u.Auth.Verify(ctx, token, phone) {
		return nil, errBadToken
	}

	unlock := u.locks.Lock(phone)
	defer unlock()

	user, err := u.DB.FindOne(ctx, phone)
	if err != nil {
		return nil, storeError(err, apperr.NotFound, "the specified user does not exist", "could not read the user")
	}
	if s := strings.TrimSpace(in.FirstName); s != "" {
		user.FirstName = s
	}
	if s := strings.TrimSpace(in.LastName); s != "" {
		user.LastName = s
	}
	if s := strings.TrimSpace(in.Password); s != "" {
		hashed, err := u.Auth.Hash(s)
		if err != nil {
			return nil, apperr.Wrap(apperr.InternalError, "could not hash the user's password", err)
		}
		user.HashedPassword = hashed
	}
	if err := u.DB.UpdateOne(ctx, *user); err != nil {
		return nil, storeError(err, apperr.NotFound, "the specified user does not exist", "could not update the user")
	}
	public := user.Public()
	return &public, nil
}

// checkResult is the outcome of deleting one owned check
type checkResult struct {
	id  string
	err error
}

// Delete removes the user and then every check it owns. Check deletions are
// forward-only; failures are reported as a PartialFailure naming the ids left behind.
func (u *Users) Delete(ctx context.Context, phone, token string) error {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) {
		return apperr.New(apperr.InvalidInput, "missing required field")
	}
	if !u.Auth.Verify(ctx, token, phone) {
		return errBadToken
	}

	unlock := u.locks.Lock(phone)
	defer unlock()

	user, err := u.DB.FindOne(ctx, phone)
	if err != nil {
		return storeError(err, apperr.NotFound, "could not find the specified user", "could not read the user")
	}
	if err := u.DB.DeleteOne(ctx, phone); err != nil {
		return storeError(err, apperr.NotFound, "could not find the specified user", "could not delete the specified user")
	}

	results := make([]checkResult, 0, len(user.Checks))
	for _, id := range user.Checks {
		err := u.CheckDB.DeleteOne(ctx, id)
		if errors.Is(err, databases.ErrNotFound) {
			// already gone, which is the state we want
			err = nil
		}
		results = append(results, checkResult{id: id, err: err})
	}

	var failed []string
	for _, r := range results {
		if r.err != nil {
			zap.S().Warnw("could not delete check of deleted user", "phone", phone, "check", r.id, "error", r.err)
			failed = append(failed, r.id)
		}
	}
	if len(failed) > 0 {
		return apperr.Partial("the user was deleted but some of the user's checks could not be deleted", failed)
	}
	return nil
}
