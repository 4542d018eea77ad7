package services

import (
	"context"
	"errors"
	"strings"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/auth"
	"campusRankAPI/internal/types/user"

	"go.uber.org/zap"
)

type AuthService struct {
	users     *UserService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *zap.Logger
}

func NewAuthService(users *UserService, tokens *auth.TokenService, passwords *auth.PasswordService) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    zap.L().Named("auth"),
	}
}

func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.SessionResponse, error) {
	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password could not be used")
	}

	u, err := s.users.CreateUser(ctx, &user.CreateUserRequest{
		Email:        req.Email,
		Username:     strings.TrimSpace(req.Username),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: &hash,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.SessionResponse, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	u, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	// OAuth-only accounts have no password to check
	if u.PasswordHash == nil {
		return nil, invalid
	}
	if err := s.passwords.Verify(*u.PasswordHash, req.Password); err != nil {
		return nil, invalid
	}
	return s.issue(u)
}

// OAuthLogin exchanges the provider code and signs in (or signs up) the owner.
func (s *AuthService) OAuthLogin(ctx context.Context, provider auth.OAuthProvider, code string) (*user.SessionResponse, error) {
	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth exchange failed", zap.String("provider", provider.Name()), zap.Error(err))
		return nil, apperror.Unauthorized("could not sign in with " + provider.Name())
	}
	if identity.Email == "" {
		return nil, apperror.ValidationFailed("email", provider.Name()+" account has no verified email")
	}

	u, err := s.users.UpsertOAuthUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Session resolves a session token back to its user.
func (s *AuthService) Session(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized("session is invalid or expired")
	}
	return s.users.GetUserByID(ctx, claims.Subject)
}

func (s *AuthService) issue(u *user.User) (*user.SessionResponse, error) {
	token, expiresAt, err := s.tokens.Generate(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	s.logger.Info("session issued", zap.String("user_id", u.ID))
	return &user.SessionResponse{Token: token, ExpiresAt: expiresAt, User: u}, nil
}
