package services

import (
	"context"
	"strings"

	"carpool/internal/apperrors"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/utils"
	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateUser(ctx context.Context, userID, actorID primitive.ObjectID, update interfaces.UserUpdate) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]*models.User, error)
	RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, platform models.DevicePlatform, token string) error
}

type userService struct {
	userRepo interfaces.UserRepository
	logger   *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, logger *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *userService) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// UpdateUser changes the profile of the acting user only.
func (s *userService) UpdateUser(ctx context.Context, userID, actorID primitive.ObjectID, update interfaces.UserUpdate) (*models.User, error) {
	if userID != actorID {
		return nil, apperrors.Forbidden("you can only update your own profile")
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		existing, err := s.userRepo.GetUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != userID:
			return nil, apperrors.ErrEmailTaken
		case err != nil && !apperrors.IsKind(err, apperrors.KindNotFound):
			return nil, err
		}
		update.Email = &email
	}

	user, err := s.userRepo.UpdateUser(ctx, userID, update)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithUserID(userID).Info("User profile updated")
	return user, nil
}

func (s *userService) SearchUsers(ctx context.Context, query string) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.User{}, nil
	}
	return s.userRepo.SearchUsers(ctx, query, utils.UserSearchLimit)
}

func (s *userService) RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, platform models.DevicePlatform, token string) error {
	switch platform {
	case models.DevicePlatformFCM, models.DevicePlatformAPNS:
	default:
		return apperrors.Validation("platform must be fcm or apns")
	}
	if strings.TrimSpace(token) == "" {
		return apperrors.Validation("token is required")
	}

	if err := s.userRepo.AddDeviceToken(ctx, userID, platform, token); err != nil {
		return err
	}

	s.logger.WithContext(ctx).WithUserID(userID).WithField("platform", platform).Debug("Device token registered")
	return nil
}
