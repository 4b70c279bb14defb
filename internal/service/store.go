package service

import (
	"context"

	"go-user-directory/internal/model"
)

// UserStore is the credential store the services run against. Implementations report
// model.ErrUserNotFound for missing ids or emails and model.ErrUserAlreadyExists when a
// username or email uniqueness constraint is hit.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Insert(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int64) error
}
