package resources

import (
	"errors"

	"github.com/linesmerrill/uptime-api/apperr"
	"github.com/linesmerrill/uptime-api/databases"
)

// storeError classifies a document store failure. Missing documents become
// notFound, everything else (corrupt content, disk errors) is internal.
func storeError(err error, notFound apperr.Kind, notFoundMsg, internalMsg string) error {
	if errors.Is(err, databases.ErrNotFound) || errors.Is(err, databases.ErrInvalidKey) {
		return apperr.Wrap(notFound, notFoundMsg, err)
	}
	return apperr.Wrap(apperr.InternalError, internalMsg, err)
}

var errBadToken = apperr.New(apperr.Unauthorized, "missing required token in header, or token is invalid")
