package handlers

import (
	"time"

	"carpool/internal/middleware"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/internal/validators"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RideHandler struct {
	rideService services.RideService
	logger      *logger.Logger
}

func NewRideHandler(rideService services.RideService, logger *logger.Logger) *RideHandler {
	return &RideHandler{
		rideService: rideService,
		logger:      logger,
	}
}

// CreateRide posts a new ride driven by the caller
func (h *RideHandler) CreateRide(c *gin.Context) {
	driverID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}

	var req validators.CreateRideRequest
	if !bindJSON(c, &req) {
		return
	}
	departure, errs := validators.ValidateCreateRide(&req, time.UTC)
	if len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), driverID, &services.CreateRideInput{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        departure,
		Seats:       req.Seats,
		Price:       req.Price,
		Description: req.Description,
	})
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride created successfully", ride)
}

// ListRides returns all rides, soonest first
func (h *RideHandler) ListRides(c *gin.Context) {
	params := utils.GetPaginationParams(c, "date", "asc")

	rides, total, err := h.rideService.ListRides(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(rides),
	})
}

func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", ride)
}

func (h *RideHandler) FeaturedRides(c *gin.Context) {
	rides, err := h.rideService.FeaturedRides(c.Request.Context())
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Featured rides retrieved successfully", rides)
}

func (h *RideHandler) Stats(c *gin.Context) {
	stats, err := h.rideService.Stats(c.Request.Context())
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride statistics retrieved successfully", stats)
}

// MyRides returns rides the caller drives or rides in
func (h *RideHandler) MyRides(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}

	rides, err := h.rideService.ListUserRides(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Rides retrieved successfully", rides)
}

// UserRides returns rides of the user named in the path
func (h *RideHandler) UserRides(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	rides, err := h.rideService.ListUserRides(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Rides retrieved successfully", rides)
}

func (h *RideHandler) History(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}

	rides, err := h.rideService.RideHistory(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride history retrieved successfully", rides)
}

// JoinRide books a seat for the caller
func (h *RideHandler) JoinRide(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.JoinRide(c.Request.Context(), rideID, userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Joined ride successfully", ride)
}

func (h *RideHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.UpdateRideStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, errs := validators.ValidateUpdateRideStatus(&req)
	if len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	ride, err := h.rideService.UpdateStatus(c.Request.Context(), rideID, userID, status)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride status updated successfully", ride)
}

func (h *RideHandler) RateRide(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.RateRideRequest
	if !bindJSON(c, &req) {
		return
	}
	if errs := validators.ValidateRateRide(&req); len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	ride, err := h.rideService.RateRide(c.Request.Context(), rideID, userID, req.Rating, req.Comment)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride rated successfully", ride)
}
