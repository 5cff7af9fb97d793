package testhelpers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/uptime-api/auth"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/resources"
)

// Clock is a settable time source for the token authority
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Env is a resource manager backed by a file store in a temporary directory
type Env struct {
	Store   databases.DocumentStore
	Users   databases.UserDatabase
	Tokens  databases.TokenDatabase
	Checks  databases.CheckDatabase
	Auth    *auth.Authority
	Manager *resources.Manager
	Clock   *Clock
}

// NewEnv builds an Env whose clock starts at 2024-01-01 12:00 UTC
func NewEnv(t testing.TB, maxChecks int) *Env {
	t.Helper()
	store, err := databases.NewFileStore(t.TempDir())
	require.NoError(t, err)

	e := &Env{
		Store:  store,
		Users:  databases.NewUserDatabase(store),
		Tokens: databases.NewTokenDatabase(store),
		Checks: databases.NewCheckDatabase(store),
		Clock:  &Clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	e.Auth = auth.NewAuthority(e.Tokens, "thisIsASecret", auth.WithClock(e.Clock.Now))
	e.Manager = resources.NewManager(e.Users, e.Checks, e.Auth, maxChecks)
	return e
}
