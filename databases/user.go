package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"github.com/linesmerrill/uptime-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user collection
type UserDatabase interface {
	FindOne(ctx context.Context, phone string) (*models.User, error)
	InsertOne(ctx context.Context, user models.User) error
	UpdateOne(ctx context.Context, user models.User) error
	DeleteOne(ctx context.Context, phone string) error
}

type userDatabase struct {
	db DocumentStore
}

// NewUserDatabase initializes a new instance of user database with the provided store
func NewUserDatabase(db DocumentStore) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, phone string) (*models.User, error) {
	user := &models.User{}
	if err := u.db.Read(ctx, userName, phone, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) InsertOne(ctx context.Context, user models.User) error {
	return u.db.Create(ctx, userName, user.Phone, user)
}

func (u *userDatabase) UpdateOne(ctx context.Context, user models.User) error {
	return u.db.Update(ctx, userName, user.Phone, user)
}

func (u *userDatabase) DeleteOne(ctx context.Context, phone string) error {
	return u.db.Delete(ctx, userName, phone)
}
