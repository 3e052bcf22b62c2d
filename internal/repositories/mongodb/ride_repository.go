package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carpool/internal/apperrors"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection("rides"),
	}
}

func (r *rideRepository) CreateRide(ctx context.Context, ride *models.Ride) error {
	now := time.Now()
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	if ride.Passengers == nil {
		ride.Passengers = []primitive.ObjectID{}
	}
	if ride.Ratings == nil {
		ride.Ratings = []models.RideRating{}
	}

	if _, err := r.collection.InsertOne(ctx, ride); err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	return nil
}

func (r *rideRepository) GetRideByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) ListRides(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	filter := bson.M{}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	rides, err := r.findRides(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, err
	}

	return rides, total, nil
}

func (r *rideRepository) GetRidesByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"driver": userID},
			{"passengers": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	return r.findRides(ctx, filter, opts)
}

func (r *rideRepository) GetCompletedRidesByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	filter := bson.M{
		"status": models.RideStatusCompleted,
		"$or": []bson.M{
			{"driver": userID},
			{"passengers": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	return r.findRides(ctx, filter, opts)
}

func (r *rideRepository) AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, bool, error) {
	return r.conditionalUpdate(ctx, rideID, addPassengerFilter(rideID, userID), addPassengerUpdate(userID, time.Now()))
}

// addPassengerFilter matches the ride only while userID is not yet a
// passenger and a seat is free, so the push below can never overbook.
func addPassengerFilter(rideID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":        rideID,
		"passengers": bson.M{"$ne": userID},
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$passengers"}, "$seats"},
		},
	}
}

func addPassengerUpdate(userID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"$push": bson.M{"passengers": userID},
		"$set":  bson.M{"updated_at": now},
	}
}

func (r *rideRepository) UpdateStatus(ctx context.Context, rideID primitive.ObjectID, from, to models.RideStatus) (*models.Ride, bool, error) {
	filter := bson.M{
		"_id":    rideID,
		"status": from,
	}
	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": time.Now(),
		},
	}

	return r.conditionalUpdate(ctx, rideID, filter, update)
}

func (r *rideRepository) AddRating(ctx context.Context, rideID primitive.ObjectID, rating models.RideRating, expectedCount int, average float64) (*models.Ride, bool, error) {
	filter := bson.M{
		"_id":          rideID,
		"ratings.user": bson.M{"$ne": rating.User},
		"$expr": bson.M{
			"$eq": bson.A{bson.M{"$size": "$ratings"}, expectedCount},
		},
	}
	update := bson.M{
		"$push": bson.M{"ratings": rating},
		"$set": bson.M{
			"average_rating": average,
			"updated_at":     time.Now(),
		},
	}

	return r.conditionalUpdate(ctx, rideID, filter, update)
}

func (r *rideRepository) ScanUpcomingRides(ctx context.Context, from time.Time, visit interfaces.RideVisitor) error {
	filter := bson.M{"date": bson.M{"$gte": from}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})

	return r.scan(ctx, filter, opts, visit)
}

func (r *rideRepository) ScanAllRides(ctx context.Context, visit interfaces.RideVisitor) error {
	opts := options.Find().SetProjection(bson.M{
		"status":     1,
		"price":      1,
		"passengers": 1,
		"seats":      1,
		"date":       1,
	})

	return r.scan(ctx, bson.M{}, opts, visit)
}

// conditionalUpdate applies update when filter matches. A miss is reported
// as (nil, false, nil) if the ride exists, or ErrRideNotFound otherwise.
func (r *rideRepository) conditionalUpdate(ctx context.Context, rideID primitive.ObjectID, filter, update bson.M) (*models.Ride, bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err == nil {
		return &ride, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("failed to update ride: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": rideID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to check ride: %w", err)
	}
	if count == 0 {
		return nil, false, apperrors.ErrRideNotFound
	}

	return nil, false, nil
}

func (r *rideRepository) scan(ctx context.Context, filter bson.M, opts *options.FindOptions, visit interfaces.RideVisitor) error {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to find rides: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var ride models.Ride
		if err := cursor.Decode(&ride); err != nil {
			return fmt.Errorf("failed to decode ride: %w", err)
		}
		if !visit(&ride) {
			return nil
		}
	}

	if err := cursor.Err(); err != nil {
		return fmt.Errorf("failed to iterate rides: %w", err)
	}

	return nil
}

func (r *rideRepository) findRides(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Ride, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rides: %w", err)
	}
	defer cursor.Close(ctx)

	rides := []*models.Ride{}
	for cursor.Next(ctx) {
		var ride models.Ride
		if err := cursor.Decode(&ride); err != nil {
			return nil, fmt.Errorf("failed to decode ride: %w", err)
		}
		rides = append(rides, &ride)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rides: %w", err)
	}

	return rides, nil
}
