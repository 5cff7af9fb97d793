package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/uptime-api/apperr"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", apperr.New(apperr.QuotaExceeded, "too many checks"))

	assert.Equal(t, apperr.QuotaExceeded, apperr.KindOf(err))
	assert.Equal(t, "too many checks", apperr.MessageOf(err))
}

func TestKindOfPlainErrorIsInternal(t *testing.T) {
	err := errors.New("disk on fire")

	assert.Equal(t, apperr.InternalError, apperr.KindOf(err))
	assert.Equal(t, "internal error", apperr.MessageOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("open /data/users/1.json: permission denied")
	err := apperr.Wrap(apperr.InternalError, "could not read user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "could not read user", apperr.MessageOf(err))
}

func TestPartialCarriesFailedIDs(t *testing.T) {
	err := apperr.Partial("some checks were not deleted", []string{"c2"})

	assert.Equal(t, apperr.PartialFailure, apperr.KindOf(err))
	assert.Equal(t, []string{"c2"}, apperr.FailedOf(err))
}

func TestStatus(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.InvalidInput:       http.StatusBadRequest,
		apperr.Conflict:           http.StatusBadRequest,
		apperr.QuotaExceeded:      http.StatusBadRequest,
		apperr.InvalidCredentials: http.StatusBadRequest,
		apperr.Expired:            http.StatusBadRequest,
		apperr.Unauthorized:       http.StatusForbidden,
		apperr.Forbidden:          http.StatusForbidden,
		apperr.NotFound:           http.StatusNotFound,
		apperr.PartialFailure:     http.StatusInternalServerError,
		apperr.InconsistentState:  http.StatusInternalServerError,
		apperr.InternalError:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, apperr.Status(kind), kind.String())
	}
}
