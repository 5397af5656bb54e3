package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-gonic/gin"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

// ErrorHandler answers requests rejected by the OpenAPI validator.
func ErrorHandler(c *gin.Context, message string, statusCode int) {
	var errMsg error

	ctx := c.Request.Context()

	data, err := c.GetRawData()
	if err == nil {
		errMsg = fmt.Errorf("OpenAPI validation error: %s, data: %s", message, data)
	} else {
		errMsg = fmt.Errorf("OpenAPI validation error: %s, body read error: %w", message, err)
	}

	telemetry.ReportError(ctx, message, errMsg)

	c.Error(errMsg)

	c.AbortWithStatusJSON(statusCode, gin.H{"code": statusCode, "message": fmt.Errorf("validation error: %s", message).Error()})
}

// MultiErrorHandler reports only the first validation error back to the user.
func MultiErrorHandler(me openapi3.MultiError) error {
	if len(me) == 0 {
		return nil
	}
	err := me[0]

	var e *openapi3filter.RequestError
	if errors.As(err, &e) {
		errorLines := strings.Split(e.Error(), "\n")

		return fmt.Errorf("error in openapi3filter.RequestError: %s", errorLines[0])
	}

	return fmt.Errorf("error validating request: %w", err)
}
