// File: internal/middleware/error.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wecare_donations_backend/internal/common"
)

// ErrorHandler converts errors attached with c.Error into the JSON error
// envelope and answers unmatched routes with NOT_FOUND / METHOD_NOT_ALLOWED.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		if len(c.Errors) > 0 {
			common.RespondWithError(c, c.Errors.Last().Err)
			return
		}

		switch c.Writer.Status() {
		case http.StatusNotFound:
			common.RespondWithError(c, common.ErrNotFound.WithDetails("The requested endpoint does not exist."))
		case http.StatusMethodNotAllowed:
			common.RespondWithError(c, common.NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL."))
		}
	}
}
