package interfaces

import (
	"context"
	"time"

	"carpool/internal/models"
	"carpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideVisitor is called once per ride during a scan. Returning false stops
// the scan.
type RideVisitor func(ride *models.Ride) bool

type RideRepository interface {
	// Ride CRUD operations
	CreateRide(ctx context.Context, ride *models.Ride) error
	GetRideByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)

	// Listing
	ListRides(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetRidesByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error)
	GetCompletedRidesByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error)

	// Conditional writes. Each returns (nil, false, nil) when the ride exists
	// but its guard did not hold, and ErrRideNotFound when it does not exist.

	// AddPassenger appends userID if the user is not already a passenger and
	// a seat is free.
	AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, bool, error)
	// UpdateStatus moves the ride from one status to another.
	UpdateStatus(ctx context.Context, rideID primitive.ObjectID, from, to models.RideStatus) (*models.Ride, bool, error)
	// AddRating appends a rating if the ride still holds expectedCount
	// ratings and the user has not rated it.
	AddRating(ctx context.Context, rideID primitive.ObjectID, rating models.RideRating, expectedCount int, average float64) (*models.Ride, bool, error)

	// Scans
	ScanUpcomingRides(ctx context.Context, from time.Time, visit RideVisitor) error
	ScanAllRides(ctx context.Context, visit RideVisitor) error
}
