package databases

// go generate: mockery --name CheckDatabase

import (
	"context"

	"github.com/linesmerrill/uptime-api/models"
)

const checkName = "checks"

// CheckDatabase contains the methods to use with the check collection
type CheckDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Check, error)
	InsertOne(ctx context.Context, check models.Check) error
	UpdateOne(ctx context.Context, check models.Check) error
	DeleteOne(ctx context.Context, id string) error
	Keys(ctx context.Context) ([]string, error)
}

type checkDatabase struct {
	db DocumentStore
}

// NewCheckDatabase initializes a new instance of check database with the provided store
func NewCheckDatabase(db DocumentStore) CheckDatabase {
	return &checkDatabase{
		db: db,
	}
}

func (c *checkDatabase) FindOne(ctx context.Context, id string) (*models.Check, error) {
	check := &models.Check{}
	if err := c.db.Read(ctx, checkName, id, check); err != nil {
		return nil, err
	}
	return check, nil
}

func (c *checkDatabase) InsertOne(ctx context.Context, check models.Check) error {
	return c.db.Create(ctx, checkName, check.ID, check)
}

func (c *checkDatabase) UpdateOne(ctx context.Context, check models.Check) error {
	return c.db.Update(ctx, checkName, check.ID, check)
}

func (c *checkDatabase) DeleteOne(ctx context.Context, id string) error {
	return c.db.Delete(ctx, checkName, id)
}

func (c *checkDatabase) Keys(ctx context.Context) ([]string, error) {
	return c.db.List(ctx, checkName)
}
