package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DevicePlatform string

const (
	DevicePlatformFCM  DevicePlatform = "fcm"
	DevicePlatformAPNS DevicePlatform = "apns"
)

type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Password     string             `json:"-" bson:"password"`
	DeviceTokens DeviceTokens       `json:"-" bson:"device_tokens"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

type DeviceTokens struct {
	FCM  []string `bson:"fcm,omitempty"`
	APNS []string `bson:"apns,omitempty"`
}

// PublicUser is the reduced view embedded in other users' responses.
type PublicUser struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
