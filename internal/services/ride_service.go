package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carpool/internal/apperrors"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/utils"
	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxWriteAttempts bounds the retries of a conditional ride update that lost
// a race with a concurrent writer.
const maxWriteAttempts = 3

type RideService interface {
	// Ride management
	CreateRide(ctx context.Context, driverID primitive.ObjectID, input *CreateRideInput) (*models.Ride, error)
	GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error)
	ListRides(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	ListUserRides(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error)
	RideHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error)
	UpdateStatus(ctx context.Context, rideID, actorID primitive.ObjectID, status models.RideStatus) (*models.Ride, error)

	// Seat allocation
	JoinRide(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error)

	// Ratings
	RateRide(ctx context.Context, rideID, userID primitive.ObjectID, rating int, comment string) (*models.Ride, error)

	// Dashboard
	FeaturedRides(ctx context.Context) ([]*models.Ride, error)
	Stats(ctx context.Context) (*models.RideStats, error)

	// DrainEvents waits for in-flight ride events until ctx is done.
	DrainEvents(ctx context.Context) error
}

type CreateRideInput struct {
	Origin      string
	Destination string
	Date        time.Time
	Seats       int
	Price       float64
	Description string
}

type RideServiceConfig struct {
	// AllowDriverJoin lets a driver take a seat in their own ride.
	AllowDriverJoin bool
	FeaturedLimit   int
	SummaryCacheTTL time.Duration
}

type rideService struct {
	rideRepo interfaces.RideRepository
	cache    CacheService
	events   EventPublisher
	config   RideServiceConfig
	logger   *logger.Logger
	now      func() time.Time
	pending  sync.WaitGroup
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	cache CacheService,
	events EventPublisher,
	config RideServiceConfig,
	logger *logger.Logger,
) RideService {
	if config.FeaturedLimit <= 0 {
		config.FeaturedLimit = utils.FeaturedRidesLimit
	}
	return &rideService{
		rideRepo: rideRepo,
		cache:    cache,
		events:   events,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *rideService) CreateRide(ctx context.Context, driverID primitive.ObjectID, input *CreateRideInput) (*models.Ride, error) {
	if input.Seats < 1 {
		return nil, apperrors.Validation("seats must be at least 1")
	}
	if input.Price < 0 {
		return nil, apperrors.Validation("price must not be negative")
	}

	ride := &models.Ride{
		Driver:      driverID,
		Origin:      input.Origin,
		Destination: input.Destination,
		Date:        input.Date,
		Seats:       input.Seats,
		Price:       input.Price,
		Description: input.Description,
		Status:      models.RideStatusScheduled,
		Passengers:  []primitive.ObjectID{},
		Ratings:     []models.RideRating{},
	}

	if err := s.rideRepo.CreateRide(ctx, ride); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogRideEvent(ride.ID, "created", map[string]interface{}{
		"driver_id": driverID.Hex(),
		"seats":     ride.Seats,
	})
	s.afterWrite(ctx, newRideEvent(RideEventCreated, ride, nil))

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error) {
	return s.rideRepo.GetRideByID(ctx, rideID)
}

func (s *rideService) ListRides(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rideRepo.ListRides(ctx, params)
}

func (s *rideService) ListUserRides(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	return s.rideRepo.GetRidesByUser(ctx, userID)
}

func (s *rideService) RideHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	return s.rideRepo.GetCompletedRidesByUser(ctx, userID)
}

// JoinRide adds the user to the ride's passengers. The write is a single
// conditional update; when it does not apply, the ride is re-read and the
// failure reported in the order not found, already joined, no seats.
func (s *rideService) JoinRide(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	if !s.config.AllowDriverJoin {
		ride, err := s.rideRepo.GetRideByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if ride.IsDriver(userID) {
			return nil, apperrors.ErrDriverJoinForbidden
		}
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		ride, applied, err := s.rideRepo.AddPassenger(ctx, rideID, userID)
		if err != nil {
			return nil, err
		}
		if applied {
			s.logger.WithContext(ctx).WithUserID(userID).LogRideEvent(ride.ID, "joined", map[string]interface{}{
				"passengers": len(ride.Passengers),
				"seats":      ride.Seats,
			})
			s.afterWrite(ctx, newRideEvent(RideEventJoined, ride, &userID))
			return ride, nil
		}

		current, err := s.rideRepo.GetRideByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if err := CheckJoinable(current, userID); err != nil {
			return nil, err
		}
		// The guard failed but the fresh copy looks joinable: the ride
		// changed in between. Try again.
	}

	return nil, apperrors.Internal(fmt.Errorf("join ride %s: conditional update did not apply after %d attempts", rideID.Hex(), maxWriteAttempts))
}

// CheckJoinable applies the join rules to a ride snapshot, in order.
func CheckJoinable(ride *models.Ride, userID primitive.ObjectID) error {
	if ride == nil {
		return apperrors.ErrRideNotFound
	}
	if ride.HasPassenger(userID) {
		return apperrors.ErrAlreadyJoined
	}
	if !ride.HasFreeSeats() {
		return apperrors.ErrNoSeatsAvailable
	}
	return nil
}

func (s *rideService) UpdateStatus(ctx context.Context, rideID, actorID primitive.ObjectID, status models.RideStatus) (*models.Ride, error) {
	if !status.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown ride status %q", status))
	}

	ride, err := s.rideRepo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsDriver(actorID) {
		return nil, apperrors.ErrNotRideDriver
	}
	if !ride.Status.CanTransitionTo(status) {
		return nil, invalidTransition(ride.Status, status)
	}

	updated, applied, err := s.rideRepo.UpdateStatus(ctx, rideID, ride.Status, status)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := s.rideRepo.GetRideByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		return nil, invalidTransition(current.Status, status)
	}

	s.logger.WithContext(ctx).LogRideEvent(updated.ID, "status_changed", map[string]interface{}{
		"from": string(ride.Status),
		"to":   string(status),
	})
	s.afterWrite(ctx, newRideEvent(RideEventStatusChanged, updated, &actorID))

	return updated, nil
}

func invalidTransition(from, to models.RideStatus) error {
	return apperrors.ValidationWithCode(
		apperrors.CodeInvalidStatusTransition,
		fmt.Sprintf("cannot change ride status from %s to %s", from, to),
	)
}

// RateRide records one rating per passenger on a completed ride and
// recomputes the average. The write is a compare-and-set on the number of
// ratings, retried when another rating lands first.
func (s *rideService) RateRide(ctx context.Context, rideID, userID primitive.ObjectID, rating int, comment string) (*models.Ride, error) {
	if rating < utils.MinRating || rating > utils.MaxRating {
		return nil, apperrors.Validation(fmt.Sprintf("rating must be between %d and %d", utils.MinRating, utils.MaxRating))
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		ride, err := s.rideRepo.GetRideByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if ride.Status != models.RideStatusCompleted {
			return nil, apperrors.Validation("only completed rides can be rated")
		}
		if !ride.HasPassenger(userID) {
			return nil, apperrors.ErrNotRidePassenger
		}
		if ride.HasRated(userID) {
			return nil, apperrors.ErrAlreadyRated
		}

		entry := models.RideRating{
			User:    userID,
			Rating:  rating,
			Comment: comment,
			Date:    s.now(),
		}
		ratings := append(append([]models.RideRating{}, ride.Ratings...), entry)

		updated, applied, err := s.rideRepo.AddRating(ctx, rideID, entry, len(ride.Ratings), models.AverageRating(ratings))
		if err != nil {
			return nil, err
		}
		if applied {
			s.logger.WithContext(ctx).WithUserID(userID).LogRideEvent(updated.ID, "rated", map[string]interface{}{
				"rating":         rating,
				"average_rating": updated.AverageRating,
			})
			s.afterWrite(ctx, newRideEvent(RideEventRated, updated, &userID))
			return updated, nil
		}
	}

	return nil, apperrors.Internal(fmt.Errorf("rate ride %s: conditional update did not apply after %d attempts", rideID.Hex(), maxWriteAttempts))
}

// FeaturedRides returns up to the configured number of upcoming rides that
// still have a free seat, soonest first.
func (s *rideService) FeaturedRides(ctx context.Context) ([]*models.Ride, error) {
	var featured []*models.Ride
	if err := s.cache.Get(ctx, utils.CacheKeyFeaturedRides, &featured); err == nil {
		return featured, nil
	}

	featured, err := SelectFeaturedRides(ctx, s.rideRepo, s.now(), s.config.FeaturedLimit)
	if err != nil {
		return nil, err
	}

	s.cacheSummary(ctx, utils.CacheKeyFeaturedRides, featured)

	return featured, nil
}

// SelectFeaturedRides scans upcoming rides in date order and keeps those
// with free seats until limit is reached.
func SelectFeaturedRides(ctx context.Context, repo interfaces.RideRepository, now time.Time, limit int) ([]*models.Ride, error) {
	featured := make([]*models.Ride, 0, limit)
	err := repo.ScanUpcomingRides(ctx, now, func(ride *models.Ride) bool {
		if ride.IsUpcoming(now) && ride.HasFreeSeats() {
			featured = append(featured, ride)
		}
		return len(featured) < limit
	})
	if err != nil {
		return nil, err
	}
	return featured, nil
}

func (s *rideService) Stats(ctx context.Context) (*models.RideStats, error) {
	var stats models.RideStats
	if err := s.cache.Get(ctx, utils.CacheKeyRideStats, &stats); err == nil {
		return &stats, nil
	}

	computed, err := ComputeRideStats(ctx, s.rideRepo)
	if err != nil {
		return nil, err
	}

	s.cacheSummary(ctx, utils.CacheKeyRideStats, computed)

	return computed, nil
}

// ComputeRideStats folds every ride into one summary.
func ComputeRideStats(ctx context.Context, repo interfaces.RideRepository) (*models.RideStats, error) {
	stats := &models.RideStats{}
	err := repo.ScanAllRides(ctx, func(ride *models.Ride) bool {
		stats.Add(ride)
		return true
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *rideService) cacheSummary(ctx context.Context, key string, value interface{}) {
	if s.config.SummaryCacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.SummaryCacheTTL); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to cache ride summary")
	}
}

// afterWrite drops the cached summaries and publishes the ride event in the
// background. Publishing never delays the committed write's response.
func (s *rideService) afterWrite(ctx context.Context, event *RideEvent) {
	if err := s.cache.Delete(ctx, utils.CacheKeyFeaturedRides, utils.CacheKeyRideStats); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate ride summaries")
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		publishRideEvent(ctx, s.events, s.logger, event)
	}()
}

func (s *rideService) DrainEvents(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
