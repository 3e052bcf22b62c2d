package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string

const (
	RideStatusScheduled  RideStatus = "scheduled"
	RideStatusInProgress RideStatus = "in-progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// rideTransitions lists the statuses reachable from each status.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusScheduled:  {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress: {RideStatusCompleted},
}

func (s RideStatus) IsValid() bool {
	switch s {
	case RideStatusScheduled, RideStatusInProgress, RideStatusCompleted, RideStatusCancelled:
		return true
	}
	return false
}

func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, allowed := range rideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Ride struct {
	ID            primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Driver        primitive.ObjectID   `json:"driver" bson:"driver"`
	Origin        string               `json:"origin" bson:"origin"`
	Destination   string               `json:"destination" bson:"destination"`
	Date          time.Time            `json:"date" bson:"date"`
	Seats         int                  `json:"seats" bson:"seats"`
	Price         float64              `json:"price" bson:"price"`
	Description   string               `json:"description" bson:"description"`
	Status        RideStatus           `json:"status" bson:"status"`
	Passengers    []primitive.ObjectID `json:"passengers" bson:"passengers"`
	Ratings       []RideRating         `json:"ratings" bson:"ratings"`
	AverageRating float64              `json:"averageRating" bson:"average_rating"`
	CreatedAt     time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updated_at"`
}

type RideRating struct {
	User    primitive.ObjectID `json:"user" bson:"user"`
	Rating  int                `json:"rating" bson:"rating"`
	Comment string             `json:"comment,omitempty" bson:"comment,omitempty"`
	Date    time.Time          `json:"date" bson:"date"`
}

func (r *Ride) HasPassenger(userID primitive.ObjectID) bool {
	for _, p := range r.Passengers {
		if p == userID {
			return true
		}
	}
	return false
}

func (r *Ride) AvailableSeats() int {
	free := r.Seats - len(r.Passengers)
	if free < 0 {
		return 0
	}
	return free
}

func (r *Ride) HasFreeSeats() bool {
	return len(r.Passengers) < r.Seats
}

// IsUpcoming reports whether the ride is scheduled at or after now.
func (r *Ride) IsUpcoming(now time.Time) bool {
	return !r.Date.Before(now)
}

func (r *Ride) HasRated(userID primitive.ObjectID) bool {
	for _, rating := range r.Ratings {
		if rating.User == userID {
			return true
		}
	}
	return false
}

func (r *Ride) IsDriver(userID primitive.ObjectID) bool {
	return r.Driver == userID
}

// Involves reports whether the user drives or rides in this ride.
func (r *Ride) Involves(userID primitive.ObjectID) bool {
	return r.IsDriver(userID) || r.HasPassenger(userID)
}

// AverageRating is the mean rating value, or 0 when there are no ratings.
func AverageRating(ratings []RideRating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings))
}

// RideStats is the dashboard summary over the whole ride collection.
type RideStats struct {
	TotalRides      int64   `json:"totalRides"`
	ActiveRides     int64   `json:"activeRides"`
	CompletedRides  int64   `json:"completedRides"`
	TotalPassengers int64   `json:"totalPassengers"`
	TotalRevenue    float64 `json:"totalRevenue"`
}

// Add folds one ride into the running totals.
func (s *RideStats) Add(ride *Ride) {
	s.TotalRides++
	s.TotalPassengers += int64(len(ride.Passengers))

	switch ride.Status {
	case RideStatusScheduled:
		s.ActiveRides++
	case RideStatusCompleted:
		s.CompletedRides++
		s.TotalRevenue += ride.Price
	}
}
