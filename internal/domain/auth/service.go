package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"classping/internal/common"
	"classping/internal/domain/schedule"
)

// Service handles registration, login and password management.
type Service struct {
	users  schedule.UserStore
	tokens *Tokens
}

// NewService creates a new auth service.
func NewService(users schedule.UserStore, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	u, err := s.CreateUser(ctx, req.Email, req.FullName, req.Password)
	if err != nil {
		return nil, err
	}
	return s.respond(u)
}

// CreateUser stores a new account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, email, fullName, password string) (*schedule.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &schedule.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, schedule.ErrConflict) {
			return nil, common.NewConflictError("email is already registered")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	u, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, common.NewUnauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, req.Password) {
		return nil, common.NewUnauthorizedError("invalid credentials")
	}
	return s.respond(u)
}

// Me returns the authenticated user.
func (s *Service) Me(ctx context.Context, userID int64) (*schedule.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, common.NewUnauthorizedError("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return u, nil
}

// ResetPassword replaces the password of the account registered with email.
func (s *Service) ResetPassword(ctx context.Context, email, password string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, schedule.ErrNotFound) {
		return common.NewNotFoundError("user", email)
	}
	if err != nil {
		return fmt.Errorf("fetching user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("saving password: %w", err)
	}
	return nil
}

func (s *Service) respond(u *schedule.User) (*TokenResponse, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        u,
	}, nil
}
