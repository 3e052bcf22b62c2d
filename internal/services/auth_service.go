package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carpool/internal/apperrors"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/utils"
	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type AuthServiceConfig struct {
	JWTSecret         string
	AccessTokenTTL    time.Duration
	PasswordMinLength int
}

type authService struct {
	userRepo interfaces.UserRepository
	config   AuthServiceConfig
	logger   *logger.Logger
}

func NewAuthService(userRepo interfaces.UserRepository, config AuthServiceConfig, logger *logger.Logger) AuthService {
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = utils.DefaultAccessTokenTTL
	}
	if config.PasswordMinLength <= 0 {
		config.PasswordMinLength = utils.PasswordMinLength
	}
	return &authService{
		userRepo: userRepo,
		config:   config,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.Validation("name and email are required")
	}
	if len(input.Password) < s.config.PasswordMinLength {
		return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength))
	}

	if _, err := s.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The unique index still catches a concurrent registration.
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithUserID(user.ID).Info("User registered successfully")

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.LogSecurityEvent("login_failed", map[string]interface{}{"email": email, "reason": "unknown_email"})
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.checkPassword(password, user.Password) {
		s.logger.LogSecurityEvent("login_failed", map[string]interface{}{"user_id": user.ID.Hex(), "reason": "bad_password"})
		return nil, apperrors.ErrInvalidCredentials
	}

	s.logger.WithContext(ctx).WithUserID(user.ID).Info("User logged in successfully")

	return s.issueToken(user)
}

func (s *authService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *authService) issueToken(user *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateAccessToken(user.ID, user.Email, s.config.JWTSecret, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		Token:     token.Token,
		TokenType: token.TokenType,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	}, nil
}

func (s *authService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
