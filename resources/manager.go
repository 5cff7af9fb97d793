// Package resources implements the user, token and check operations on top of
// the document store, and keeps the users -> checks relationship consistent
// across independent file operations.
package resources

import (
	"github.com/linesmerrill/uptime-api/auth"
	"github.com/linesmerrill/uptime-api/databases"
)

// DefaultMaxChecks is the per-user check quota when none is configured
const DefaultMaxChecks = 5

// Manager bundles the three resource surfaces. They share one per-user lock so
// that operations rewriting the same user document run one at a time.
type Manager struct {
	Users  *Users
	Tokens *Tokens
	Checks *Checks
}

// NewManager wires the resource surfaces to the given databases
func NewManager(userDB databases.UserDatabase, checkDB databases.CheckDatabase, authority *auth.Authority, maxChecks int) *Manager {
	if maxChecks < 1 {
		maxChecks = DefaultMaxChecks
	}
	locks := newKeyedMutex()
	return &Manager{
		Users: &Users{
			DB:      userDB,
			CheckDB: checkDB,
			Auth:    authority,
			locks:   locks,
		},
		Tokens: &Tokens{
			UserDB: userDB,
			Auth:   authority,
		},
		Checks: &Checks{
			DB:        checkDB,
			UserDB:    userDB,
			Auth:      authority,
			MaxChecks: maxChecks,
			locks:     locks,
		},
	}
}
