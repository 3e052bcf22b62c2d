package handlers

import (
	"carpool/internal/utils"
	"carpool/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bindJSON decodes the body into req, writing a 400 on malformed JSON.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return false
	}
	return true
}

// pathID parses an ObjectID path parameter, writing a 400 when malformed.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := validators.ParseObjectID(name, c.Param(name))
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{name: "must be a valid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
