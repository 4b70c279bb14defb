package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go-user-directory/internal/auth"
	"go-user-directory/internal/model"
	"go-user-directory/pkg/apierror"
)

type AuthService struct {
	users  UserStore
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
}

func NewAuthService(users UserStore, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

func invalidCredentials() error {
	return apierror.Authentication(apierror.CodeUnauthorized, "Invalid credentials")
}

// Login answers an unknown email and a wrong password with the same error.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.LoginResponse{}, apierror.Validation("Email and password are required", "")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		s.hasher.VerifyDummy(password)
		slog.DebugContext(ctx, "login rejected", "reason", "unknown email")
		return model.LoginResponse{}, invalidCredentials()
	}
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("login lookup: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		slog.DebugContext(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return model.LoginResponse{}, invalidCredentials()
	}

	identity := identityOf(user)
	accessToken, err := s.tokens.IssueAccessToken(identity)
	if err != nil {
		return model.LoginResponse{}, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(identity)
	if err != nil {
		return model.LoginResponse{}, err
	}

	return model.LoginResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

// Refresh mints a new access token from a refresh token, re-reading the user so the
// new claims carry current data and deleted users are refused.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.RefreshResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return model.RefreshResponse{}, apierror.Validation("Refresh token is required", "refreshToken")
	}

	claims, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		slog.DebugContext(ctx, "refresh token rejected", "expired", errors.Is(err, auth.ErrTokenExpired), "error", err)
		return model.RefreshResponse{}, apierror.Authentication(apierror.CodeInvalidToken, "Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.RefreshResponse{}, apierror.NotFound("User not found", "")
	}
	if err != nil {
		return model.RefreshResponse{}, fmt.Errorf("refresh lookup: %w", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(identityOf(user))
	if err != nil {
		return model.RefreshResponse{}, err
	}

	return model.RefreshResponse{Token: accessToken}, nil
}

// ValidateAccessToken is the gate's view of the token manager.
func (s *AuthService) ValidateAccessToken(token string) (*auth.Claims, error) {
	return s.tokens.Verify(token, auth.AccessToken)
}

func identityOf(user model.User) auth.Identity {
	return auth.Identity{UserID: user.ID, Email: user.Email, Username: user.Username}
}
