package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"
)

// ExcludeRoutes runs handler for every route except the listed ones.
func ExcludeRoutes(handler gin.HandlerFunc, routes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(routes, c.FullPath()) {
			c.Next()

			return
		}

		handler(c)
	}
}
