package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/datasets/errors"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// statusByCode maps error codes to HTTP statuses. Everything else, including
// malformed dataset records, is a server-side failure.
var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeInvalidInput:     http.StatusBadRequest,
	apperrors.ErrCodeNotFound:         http.StatusNotFound,
	apperrors.ErrCodeBufferExhausted:  http.StatusServiceUnavailable,
	apperrors.ErrCodeBusy:             http.StatusTooManyRequests,
	apperrors.ErrCodeArchive:          http.StatusBadGateway,
	apperrors.ErrCodeChecksumMismatch: http.StatusBadGateway,
}

// HTTPStatus returns the HTTP status for an error code.
func HTTPStatus(code apperrors.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondWithError sends err as a structured error body. Errors that are not
// an *apperrors.AppError become a generic 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	c.JSON(HTTPStatus(appErr.Code), appErr.ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}
