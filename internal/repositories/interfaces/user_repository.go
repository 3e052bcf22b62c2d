package interfaces

import (
	"context"

	"carpool/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserUpdate struct {
	Name  *string
	Email *string
}

type UserRepository interface {
	// User CRUD operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error)

	// Search
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)

	// Push device tokens
	AddDeviceToken(ctx context.Context, id primitive.ObjectID, platform models.DevicePlatform, token string) error
	RemoveDeviceToken(ctx context.Context, platform models.DevicePlatform, token string) error
}
