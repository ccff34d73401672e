package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/campusline/platform/shared/errs"
	"github.com/campusline/platform/shared/logger"
	"github.com/gin-gonic/gin"
)

const genericErrorMessage = "Something went wrong!"

// ErrorHandler formats errors pushed with c.Error that no handler answered.
// The message is always returned; the stack only in development.
func ErrorHandler(log logger.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		log.Error("request failed", logger.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"errors": c.Errors.Errors(),
		})
		if c.Writer.Written() {
			return
		}

		message := err.Error()
		if errs.KindOf(err) != "" {
			message = errs.MessageOf(err)
		}
		if message == "" {
			message = genericErrorMessage
		}

		var stack any
		if development {
			stack = fmt.Sprintf("%+v", err)
		}
		c.JSON(errs.StatusOf(err), gin.H{"message": message, "stack": stack})
	}
}

// Recovery turns panics into the same JSON error shape as ErrorHandler.
func Recovery(log logger.Logger, development bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		stack := string(debug.Stack())
		log.Error("panic recovered", logger.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  fmt.Sprint(recovered),
			"stack":  stack,
		})

		body := gin.H{"message": genericErrorMessage, "stack": nil}
		if msg := fmt.Sprint(recovered); msg != "" {
			body["message"] = msg
		}
		if development {
			body["stack"] = stack
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
