package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const genericErrorMessage = "Internal server error."

// HTTPError is an error that knows its response status and public message.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NotFound(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: msg}
}

func BadRequest(msg string, err error) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: msg, Err: err}
}

// ErrorHandler is the last resort: it renders the last error attached
// with c.Error as {"error": message}. Status defaults to 500 and the
// message to the error text, then to a generic one.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status, msg := http.StatusInternalServerError, err.Error()
		var he *HTTPError
		if errors.As(err, &he) {
			msg = he.Message
			if he.Status != 0 {
				status = he.Status
			}
		}
		if msg == "" {
			msg = genericErrorMessage
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Error(err))
		}
		c.JSON(status, gin.H{"error": msg})
	}
}

// Recovery turns a panic into the generic 500 response.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		log.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
	})
}
