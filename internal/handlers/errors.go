package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

func sandboxErrorStatus(err error) int {
	var validationErr *sandbox.ValidationError

	switch {
	case errors.As(err, &validationErr), errors.Is(err, sandbox.ErrQuotaExceeded):
		return http.StatusBadRequest
	case errors.Is(err, sandbox.ErrProjectNotFound), errors.Is(err, sandbox.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, sandbox.ErrLockNotObtained):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sendSandboxError answers with the status matching err. Client errors carry
// their own message, server errors are prefixed with what was attempted.
func (a *APIStore) sendSandboxError(c *gin.Context, action string, err error) {
	code := sandboxErrorStatus(err)

	message := err.Error()
	if code >= http.StatusInternalServerError {
		telemetry.ReportCriticalError(c.Request.Context(), action, err)
		message = fmt.Sprintf("%s: %s", action, err)
	}

	a.sendAPIStoreError(c, code, message)
}
