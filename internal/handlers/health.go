package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHealth reports unhealthy once shutdown has begun so the load balancer
// drains the instance.
func (a *APIStore) GetHealth(c *gin.Context) {
	if a.Healthy.Load() {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})

		return
	}

	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
}
