package mongodb

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddPassengerFilterGuardsSeatsAndDuplicates(t *testing.T) {
	rideID, userID := primitive.NewObjectID(), primitive.NewObjectID()

	want := bson.M{
		"_id":        rideID,
		"passengers": bson.M{"$ne": userID},
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$passengers"}, "$seats"},
		},
	}
	if got := addPassengerFilter(rideID, userID); !reflect.DeepEqual(got, want) {
		t.Errorf("filter = %v, want %v", got, want)
	}
}

func TestAddPassengerUpdatePushesOnlyTheUser(t *testing.T) {
	userID := primitive.NewObjectID()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	want := bson.M{
		"$push": bson.M{"passengers": userID},
		"$set":  bson.M{"updated_at": now},
	}
	if got := addPassengerUpdate(userID, now); !reflect.DeepEqual(got, want) {
		t.Errorf("update = %v, want %v", got, want)
	}
}
