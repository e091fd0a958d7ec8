package helper

import (
	"net/http"

	"github.com/gin-gonic/gin"

	. "github.com/lutheralien/to-do-api/internal/adapter/http/validation"
	"github.com/lutheralien/to-do-api/internal/core/model/response"
)

const (
	MsgResourceNotFound = "Resource not found"
	MsgInternalError    = "Internal server error"
	msgValidationFailed = "Validation failed: "
)

func SendSuccess(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, response.NewEnvelope(true, data, statusCode, message))
}

func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, response.NewEnvelope(false, nil, statusCode, message))
}

func SendBadRequestError(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFoundError(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendValidationError(c *gin.Context, err error) {
	SendBadRequestError(c, msgValidationFailed+FormatValidationErrors(err))
}

func SendInternalError(c *gin.Context) {
	SendError(c, http.StatusInternalServerError, MsgInternalError)
}
