package handlers

import (
	"errors"
	"net/http"

	"terangaride/internal/services"
	"terangaride/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	code := services.ErrorCode(err)

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrFenetreExpiree),
		errors.Is(err, services.ErrPlafondDepasse),
		errors.Is(err, services.ErrTentativesEpuisees):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, code, err.Error())
	case errors.Is(err, services.ErrTransitionInvalide),
		errors.Is(err, services.ErrDuplicateTransaction),
		errors.Is(err, services.ErrReconciliationConflict):
		utils.ErrorResponse(c, http.StatusConflict, code, err.Error())
	case errors.Is(err, services.ErrProviderError):
		utils.ErrorResponse(c, http.StatusBadGateway, code, err.Error())
	default:
		utils.InternalServerErrorResponse(c)
	}
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return primitive.NilObjectID, false
	}
	return userObjectID, true
}
