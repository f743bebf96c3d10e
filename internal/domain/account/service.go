// internal/domain/account/service.go
package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// ErrInvalidCredentials indicates a failed login attempt. The same error is
// returned for unknown usernames and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service handles account business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new account service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// LoginRequest represents account login data
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateAccountRequest represents account creation data
type CreateAccountRequest struct {
	Username string       `json:"username" binding:"required"`
	Password string       `json:"password" binding:"required"`
	Role     Role         `json:"role"`
	CostTier pricing.Tier `json:"cost_tier"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Account      *Account `json:"account"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
}

// Login authenticates an account and issues a token pair
func (s *Service) Login(req *LoginRequest) (*AuthResponse, error) {
	var acct Account
	if err := s.db.Where("username = ?", NormalizeUsername(req.Username)).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to retrieve account: %w", err)
	}

	if !acct.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := s.passwordManager.VerifyPassword(req.Password, acct.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(acct.ID, acct.Username, string(acct.Role), string(acct.CostTier))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(acct.ID, acct.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	acct.LastLoginAt = &now
	s.db.Model(&acct).Update("last_login_at", now)

	return &AuthResponse{
		Account:      &acct,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

// RefreshToken issues a new token pair from a valid refresh token
func (s *Service) RefreshToken(refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	acct, err := s.GetByID(claims.AccountID)
	if err != nil {
		return nil, err
	}
	if !acct.IsActive {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(acct.ID, acct.Username, string(acct.Role), string(acct.CostTier))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := s.jwtManager.GenerateRefreshToken(acct.ID, acct.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Account:      acct,
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

// CreateAccount creates a new account with a hashed password
func (s *Service) CreateAccount(req *CreateAccountRequest) (*Account, error) {
	username := NormalizeUsername(req.Username)

	var existing Account
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("account with username '%s' already exists", username)
	}

	if err := s.passwordManager.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acct := &Account{
		Username:     username,
		PasswordHash: hash,
		Role:         req.Role,
		CostTier:     req.CostTier,
		IsActive:     true,
	}
	if acct.Role == "" {
		acct.Role = RoleSeller
	}
	if acct.CostTier != "" && !acct.CostTier.IsValid() {
		return nil, fmt.Errorf("unknown cost tier %q", acct.CostTier)
	}

	if err := s.db.Create(acct).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return acct, nil
}

// GetByID retrieves an account by id
func (s *Service) GetByID(id uint) (*Account, error) {
	var acct Account
	if err := s.db.First(&acct, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %d: %w", id, catalog.ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve account: %w", err)
	}
	return &acct, nil
}

// GetAccounts retrieves all accounts
func (s *Service) GetAccounts() ([]Account, error) {
	var accounts []Account
	if err := s.db.Order("username").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve accounts: %w", err)
	}
	return accounts, nil
}
