package handlers

import (
	_ "embed"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

//go:embed static/index.html
var landingPage []byte

func (a *APIStore) GetIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", landingPage)
}

// OpenAPIDocument serves the API document the request validator enforces.
func OpenAPIDocument(swagger *openapi3.T) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, swagger)
	}
}
