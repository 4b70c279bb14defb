package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go-user-directory/internal/auth"
	"go-user-directory/internal/model"
	"go-user-directory/pkg/apierror"
)

// Column widths of the users table.
const (
	maxUsernameLen = 50
	maxEmailLen    = 255
	maxNameLen     = 100
)

type UserService struct {
	users  UserStore
	hasher *auth.PasswordHasher
}

func NewUserService(users UserStore, hasher *auth.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

func duplicateUser() error {
	return apierror.Conflict("Username or email already exists", "")
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.PublicUser, error) {
	username := strings.TrimSpace(req.Username)
	email := model.NormalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return model.PublicUser{}, apierror.Validation("username, email, and password are required", "")
	}

	name := model.OptionalString(req.Name)
	lastname := model.OptionalString(req.Lastname)
	if err := validateProfile(username, email, name, lastname); err != nil {
		return model.PublicUser{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return model.PublicUser{}, apierror.Validation("password must be at most 72 bytes", "password")
	}
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Insert(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Lastname:     lastname,
	})
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return model.PublicUser{}, duplicateUser()
	}
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("register user: %w", err)
	}

	return created.Public(), nil
}

func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, apierror.NotFound("User not found", "")
	}
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("get user: %w", err)
	}
	return user.Public(), nil
}

// Update replaces username, email, name and lastname and returns the stored record.
func (s *UserService) Update(ctx context.Context, id int64, req model.UpdateUserRequest) (model.PublicUser, error) {
	username := strings.TrimSpace(req.Username)
	email := model.NormalizeEmail(req.Email)
	if username == "" || email == "" {
		return model.PublicUser{}, apierror.Validation("username and email are required", "")
	}

	name := model.OptionalString(req.Name)
	lastname := model.OptionalString(req.Lastname)
	if err := validateProfile(username, email, name, lastname); err != nil {
		return model.PublicUser{}, err
	}

	updated, err := s.users.Update(ctx, model.User{
		ID:       id,
		Username: username,
		Email:    email,
		Name:     name,
		Lastname: lastname,
	})
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return model.PublicUser{}, apierror.NotFound("User not found", "")
	case errors.Is(err, model.ErrUserAlreadyExists):
		return model.PublicUser{}, duplicateUser()
	case err != nil:
		return model.PublicUser{}, fmt.Errorf("update user: %w", err)
	}

	return updated.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("User not found", "")
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func validateProfile(username string, email string, name *string, lastname *string) error {
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return apierror.Validation("username is too long", "username")
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return apierror.Validation("email is too long", "email")
	}
	if !strings.Contains(email, "@") {
		return apierror.Validation("email is malformed", "email")
	}
	if name != nil && utf8.RuneCountInString(*name) > maxNameLen {
		return apierror.Validation("name is too long", "name")
	}
	if lastname != nil && utf8.RuneCountInString(*lastname) > maxNameLen {
		return apierror.Validation("lastname is too long", "lastname")
	}
	return nil
}
