package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"clicker/internal/auth"
	"clicker/internal/domain"
	"clicker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 50
	passwordMinLength = 8
	// bcrypt ignores bytes past 72
	passwordMaxLength = 72
)

// AuthConfig holds token settings for AuthService
type AuthConfig struct {
	JWTSecret      []byte
	AccessTokenTTL time.Duration
	EmailTokenTTL  time.Duration
	PublicURL      string
}

// AuthService handles account creation, verification and login
type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.EmailTokenRepository
	mailer    Mailer
	logger    *zap.Logger
	cfg       AuthConfig
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.EmailTokenRepository,
	mailer Mailer,
	logger *zap.Logger,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateAccount issues an email verification token for a new account
func (s *AuthService) CreateAccount(ctx context.Context, username, email string) (*domain.EmailToken, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	verr := domain.NewValidationError()
	if n := utf8.RuneCountInString(username); n < usernameMinLength || n > usernameMaxLength {
		verr.Add("username", fmt.Sprintf("must be %d to %d characters", usernameMinLength, usernameMaxLength))
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "must be a valid address")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyExists
	}

	now := s.now().UTC()
	token := &domain.EmailToken{
		Token:     uuid.New().String(),
		Email:     email,
		Username:  username,
		ExpiresAt: now.Add(s.cfg.EmailTokenTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Save(ctx, token); err != nil {
		return nil, err
	}

	link := strings.TrimRight(s.cfg.PublicURL, "/") + "/api/auth/verify?token=" + url.QueryEscape(token.Token)
	if err := s.mailer.SendVerification(ctx, email, username, link); err != nil {
		s.logger.Error("Failed to send verification", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Account verification started", zap.String("username", username))
	return token, nil
}

// VerifyToken returns the pending verification for token
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.EmailToken, error) {
	if token == "" {
		return nil, domain.ErrTokenNotFound
	}

	t, err := s.tokenRepo.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now()) {
		return nil, domain.ErrTokenExpired
	}
	return t, nil
}

// SetPassword completes registration for a verified token
func (s *AuthService) SetPassword(ctx context.Context, token, password string) (*domain.User, error) {
	if n := len(password); n < passwordMinLength || n > passwordMaxLength {
		verr := domain.NewValidationError()
		verr.Add("password", fmt.Sprintf("must be %d to %d bytes", passwordMinLength, passwordMaxLength))
		return nil, verr
	}

	t, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		ID:           uuid.New().String(),
		Username:     t.Username,
		Email:        t.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Delete(ctx, t.Token); err != nil {
		s.logger.Warn("Failed to delete used token", zap.String("email", t.Email), zap.Error(err))
	}

	s.logger.Info("Account created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	return user, token, nil
}

// GetUser returns the account an access token was issued for
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	return user, err
}

// CleanupExpiredTokens removes verification tokens past their expiry
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) error {
	s.logger.Info("Starting cleanup of expired email tokens")

	n, err := s.tokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to cleanup expired email tokens", zap.Error(err))
		return err
	}

	s.logger.Info("Cleanup completed successfully", zap.Int64("deleted", n))
	return nil
}
