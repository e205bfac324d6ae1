package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inquirydesk/internal/auth"
	apperrors "inquirydesk/internal/errors"
	"inquirydesk/internal/metrics"
	"inquirydesk/internal/model"
	"inquirydesk/internal/repository"
)

const bcryptCost = 10

// ErrEmptyPassword is returned when an admin would be given an empty password.
var ErrEmptyPassword = errors.New("admin password must not be empty")

// unknownUserHash is compared against when the username does not exist, so
// a failed login costs one bcrypt comparison whether or not the user is real.
var unknownUserHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("inquirydesk-unknown-admin"), bcryptCost)
	if err != nil {
		log.Printf("[AUTH] Failed to build placeholder hash: %v", err)
	}
	return hash
})

// AuthService handles admin authentication.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, user *model.AdminUser, err error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	EnsureAdmin(ctx context.Context, username, password string, resetPassword bool) (created bool, err error)
}

type authService struct {
	userRepo   repository.AdminUserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	compare    func(hash, password []byte) error
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.AdminUserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		compare:    bcrypt.CompareHashAndPassword,
	}
}

// Login checks the admin's credentials and issues a session token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *model.AdminUser, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = s.compare(unknownUserHash(), []byte(password))
			metrics.RecordAuthAttempt(false)
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, dbError("find admin", err)
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("[AUTH] Failed login for %q", user.Username)
		metrics.RecordAuthAttempt(false)
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, _, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	metrics.RecordAuthAttempt(true)
	log.Printf("[AUTH] Admin %q logged in", user.Username)
	return token, user, nil
}

// Authenticate verifies a bearer token. The token must carry a valid
// signature, be unexpired and unrevoked, and name an existing admin.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	revoked, err := s.tokenStore.IsTokenRevoked(ctx, claims.ID)
	if err != nil || revoked {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, dbError("find admin", err)
	}
	if user.Username != claims.Username {
		return nil, apperrors.ErrUnauthorized
	}

	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.tokenStore.RevokeToken(ctx, claims.ID, s.jwtService.Remaining(claims)); err != nil {
		log.Printf("[AUTH] Logout for %q not recorded: %v", claims.Username, err)
		return fmt.Errorf("revoke token: %w", err)
	}
	log.Printf("[AUTH] Admin %q logged out", claims.Username)
	return nil
}

// EnsureAdmin creates the admin account when it does not exist. When
// resetPassword is set an existing account gets the new password.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string, resetPassword bool) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, errors.New("admin username must not be empty")
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, dbError("find admin", err)
	}
	if existing != nil && !resetPassword {
		return false, nil
	}

	if password == "" {
		return false, ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	if existing != nil {
		if err := s.userRepo.UpdatePasswordHash(ctx, existing.ID, string(hash)); err != nil {
			return false, dbError("update admin password", err)
		}
		log.Printf("[AUTH] Password reset for admin %q", username)
		return false, nil
	}

	if err := s.userRepo.Create(ctx, &model.AdminUser{Username: username, PasswordHash: string(hash)}); err != nil {
		return false, dbError("create admin", err)
	}
	log.Printf("[AUTH] Created admin %q", username)
	return true, nil
}
