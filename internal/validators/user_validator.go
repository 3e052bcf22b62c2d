package validators

import (
	"strings"

	"carpool/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,not_blank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name  string `json:"name" validate:"omitempty,not_blank,max=100"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

type DeviceTokenRequest struct {
	Platform string `json:"platform" validate:"required,oneof=fcm apns"`
	Token    string `json:"token" validate:"required,max=4096"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateRegister(req *RegisterRequest) ValidationErrors {
	req.Name = SanitizeInput(req.Name)
	req.Email = NormalizeEmail(req.Email)
	return ValidateStruct(req)
}

func ValidateLogin(req *LoginRequest) ValidationErrors {
	req.Email = NormalizeEmail(req.Email)
	return ValidateStruct(req)
}

func ValidateUpdateUser(req *UpdateUserRequest) ValidationErrors {
	req.Name = SanitizeInput(req.Name)
	req.Email = NormalizeEmail(req.Email)
	return ValidateStruct(req)
}

func ValidateDeviceToken(req *DeviceTokenRequest) (models.DevicePlatform, ValidationErrors) {
	req.Token = strings.TrimSpace(req.Token)
	errs := ValidateStruct(req)
	if len(errs) > 0 {
		return "", errs
	}
	return models.DevicePlatform(req.Platform), nil
}
