package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keyshop/pkg/utils"
)

// AdmissionControl caps total concurrent in-flight requests ahead of the
// core. Overflow is rejected immediately with a retriable 503 instead of
// queuing, which protects the database connection pool under burst load.
func AdmissionControl(maxInFlight int) gin.HandlerFunc {
	if maxInFlight <= 0 {
		maxInFlight = 256
	}
	slots := make(chan struct{}, maxInFlight)

	return func(c *gin.Context) {
		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			c.Next()
		default:
			utils.RespondError(c, http.StatusServiceUnavailable, "server overloaded, please retry")
			c.Abort()
		}
	}
}
