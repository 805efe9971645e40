package middleware

import (
	"net/http"

	"civicreport/api"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// RecoveryMiddleware turns a handler panic into a 500 with the generic error body.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Errorf("Panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.MsgInternalError})
	})
}
