package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/planora/planora-backend/internal/auth/jwt"
	"github.com/planora/planora-backend/internal/auth/repository"
	"github.com/planora/planora-backend/pkg/errors"
)

// PermissionSource resolves the active permission set for a role.
type PermissionSource interface {
	GetActivePermissions(ctx context.Context, role string) ([]string, error)
}

// AuthService handles authentication logic
type AuthService struct {
	accounts    *repository.AccountRepository
	jwtManager  *jwt.Manager
	permissions PermissionSource
	logger      zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(accounts *repository.AccountRepository, jwtManager *jwt.Manager, permissions PermissionSource, logger zerolog.Logger) *AuthService {
	return &AuthService{
		accounts:    accounts,
		jwtManager:  jwtManager,
		permissions: permissions,
		logger:      logger,
	}
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token pair and account profile
type LoginResponse struct {
	Tokens  *jwt.TokenPair      `json:"tokens"`
	Account *repository.Account `json:"account"`
}

// Login authenticates a user and returns a token pair
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if !account.Active {
		return nil, errors.Forbidden("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	perms, err := s.permissions.GetActivePermissions(ctx, account.Role)
	if err != nil {
		s.logger.Warn().Err(err).Str("role", account.Role).Msg("failed to resolve role permissions, issuing token without them")
		perms = nil
	}

	tokens, err := s.jwtManager.GenerateTokenPair(userInfo(account, perms))
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	s.logger.Info().
		Str("account_id", account.ID).
		Str("email", account.Email).
		Msg("user logged in")

	return &LoginResponse{Tokens: tokens, Account: account}, nil
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.TokenInvalid()
		}
		return nil, err
	}

	if !account.Active {
		return nil, errors.Forbidden("account is deactivated")
	}

	perms, err := s.permissions.GetActivePermissions(ctx, account.Role)
	if err != nil {
		perms = nil
	}

	tokens, err := s.jwtManager.GenerateTokenPair(userInfo(account, perms))
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	return tokens, nil
}

func userInfo(account *repository.Account, perms []string) *jwt.UserInfo {
	info := &jwt.UserInfo{
		ID:          account.ID,
		Email:       account.Email,
		Role:        account.Role,
		Permissions: perms,
	}
	if account.EmployeeID != nil {
		info.EmployeeID = *account.EmployeeID
	}
	return info
}

// ChangePasswordRequest carries old and new passwords
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword verifies the current password and stores a new hash
func (s *AuthService) ChangePassword(ctx context.Context, accountID string, req *ChangePasswordRequest) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return errors.InvalidCredentials()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password")
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("account_id", account.ID).Msg("password changed")
	return nil
}
