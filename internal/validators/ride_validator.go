package validators

import (
	"time"

	"carpool/internal/models"
)

type CreateRideRequest struct {
	Origin      string  `json:"origin" validate:"required,not_blank,max=200"`
	Destination string  `json:"destination" validate:"required,not_blank,max=200"`
	Date        string  `json:"date" validate:"required,ride_date"`
	Time        string  `json:"time" validate:"required,ride_time"`
	Seats       int     `json:"seats" validate:"required,min=1,max=8"`
	Price       float64 `json:"price" validate:"min=0,max=10000"`
	Description string  `json:"description" validate:"omitempty,max=1000"`
}

type UpdateRideStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled in-progress completed cancelled"`
}

type RateRideRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=500"`
}

// ValidateCreateRide validates the request and returns the departure time
// built from the date and time fields, interpreted in loc.
func ValidateCreateRide(req *CreateRideRequest, loc *time.Location) (time.Time, ValidationErrors) {
	req.Origin = SanitizeInput(req.Origin)
	req.Destination = SanitizeInput(req.Destination)
	req.Description = SanitizeInput(req.Description)

	errs := ValidateStruct(req)
	if len(errs) > 0 {
		return time.Time{}, errs
	}

	if loc == nil {
		loc = time.UTC
	}
	departure, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, loc)
	if err != nil {
		return time.Time{}, ValidationErrors{{
			Field:   "date",
			Value:   req.Date + " " + req.Time,
			Message: "invalid date or time",
		}}
	}

	return departure, nil
}

func ValidateUpdateRideStatus(req *UpdateRideStatusRequest) (models.RideStatus, ValidationErrors) {
	errs := ValidateStruct(req)
	if len(errs) > 0 {
		return "", errs
	}
	return models.RideStatus(req.Status), nil
}

func ValidateRateRide(req *RateRideRequest) ValidationErrors {
	req.Comment = SanitizeInput(req.Comment)
	return ValidateStruct(req)
}
