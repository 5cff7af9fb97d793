package databases

// go generate: mockery --name TokenDatabase

import (
	"context"

	"github.com/linesmerrill/uptime-api/models"
)

const tokenName = "tokens"

// TokenDatabase contains the methods to use with the token collection
type TokenDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Token, error)
	InsertOne(ctx context.Context, token models.Token) error
	UpdateOne(ctx context.Context, token models.Token) error
	DeleteOne(ctx context.Context, id string) error
	Keys(ctx context.Context) ([]string, error)
}

type tokenDatabase struct {
	db DocumentStore
}

// NewTokenDatabase initializes a new instance of token database with the provided store
func NewTokenDatabase(db DocumentStore) TokenDatabase {
	return &tokenDatabase{
		db: db,
	}
}

func (t *tokenDatabase) FindOne(ctx context.Context, id string) (*models.Token, error) {
	token := &models.Token{}
	if err := t.db.Read(ctx, tokenName, id, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (t *tokenDatabase) InsertOne(ctx context.Context, token models.Token) error {
	return t.db.Create(ctx, tokenName, token.ID, token)
}

func (t *tokenDatabase) UpdateOne(ctx context.Context, token models.Token) error {
	return t.db.Update(ctx, tokenName, token.ID, token)
}

func (t *tokenDatabase) DeleteOne(ctx context.Context, id string) error {
	return t.db.Delete(ctx, tokenName, id)
}

func (t *tokenDatabase) Keys(ctx context.Context) ([]string, error) {
	return t.db.List(ctx, tokenName)
}
