package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the JSON envelope every endpoint replies with. Error
// replies carry a machine-readable code so mobile clients can branch on
// settlement failures (insufficient balance, duplicate callback, caps)
// without parsing messages.
type APIResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Total      int64           `json:"total,omitempty"`
	Count      int             `json:"count,omitempty"`
}

func reply(c *gin.Context, statusCode int, response APIResponse) {
	response.Timestamp = time.Now()
	c.JSON(statusCode, response)
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	reply(c, http.StatusOK, APIResponse{Status: StatusSuccess, Message: message, Data: data})
}

func SuccessResponseWithMeta(c *gin.Context, message string, data interface{}, meta *Meta) {
	reply(c, http.StatusOK, APIResponse{Status: StatusSuccess, Message: message, Data: data, Meta: meta})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	reply(c, http.StatusCreated, APIResponse{Status: StatusSuccess, Message: message, Data: data})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	reply(c, statusCode, APIResponse{Status: StatusError, Error: &APIError{Code: code, Message: message}})
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func UnauthorizedResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthorized)
}

func InternalServerErrorResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", ErrInternalServer)
}
