package services

import (
	"context"
	"time"

	"carpool/internal/models"
	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Routing keys on the ride events exchange.
const (
	RideEventCreated       = "ride.created"
	RideEventJoined        = "ride.joined"
	RideEventStatusChanged = "ride.status_changed"
	RideEventRated         = "ride.rated"
)

const eventPublishTimeout = 5 * time.Second

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

type RideEvent struct {
	Type          string              `json:"type"`
	RideID        primitive.ObjectID  `json:"rideId"`
	DriverID      primitive.ObjectID  `json:"driverId"`
	UserID        *primitive.ObjectID `json:"userId,omitempty"`
	Status        models.RideStatus   `json:"status"`
	Seats         int                 `json:"seats"`
	Passengers    int                 `json:"passengers"`
	AverageRating float64             `json:"averageRating,omitempty"`
	Date          time.Time           `json:"date"`
	OccurredAt    time.Time           `json:"occurredAt"`
}

func newRideEvent(eventType string, ride *models.Ride, userID *primitive.ObjectID) *RideEvent {
	return &RideEvent{
		Type:          eventType,
		RideID:        ride.ID,
		DriverID:      ride.Driver,
		UserID:        userID,
		Status:        ride.Status,
		Seats:         ride.Seats,
		Passengers:    len(ride.Passengers),
		AverageRating: ride.AverageRating,
		Date:          ride.Date,
		OccurredAt:    time.Now(),
	}
}

// publishRideEvent is best effort: failures are logged and never returned.
func publishRideEvent(ctx context.Context, publisher EventPublisher, log *logger.Logger, event *RideEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	if err := publisher.Publish(ctx, event.Type, event); err != nil {
		log.WithContext(ctx).WithRideID(event.RideID).WithError(err).Warnf("Failed to publish %s", event.Type)
	}
}

type noopEventPublisher struct{}

func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
