package httpx

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body returned for all error responses. Success
// bodies are written verbatim; the registry API fixes their exact shape
// per endpoint.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK sends a successful response with the payload as the response body
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Fail sends an error response with specified HTTP status, business code, and message
func Fail(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// FailErr sends an error response from an AppError
// If AppError.Err is not nil, it will be logged but not returned to client
func FailErr(c *gin.Context, err *AppError) {
	// Log internal error if present (for debugging, not returned to client)
	if err.Err != nil {
		log.Printf("[ERROR] %s (code=%d, internal_err=%v)", err.Message, err.Code, err.Err)
	}

	c.JSON(err.HTTPStatus, ErrorResponse{
		Code:    err.Code,
		Message: err.Message,
	})
}
