package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/utils"
)

func (a *APIStore) PostApiV1GcpExtend(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := utils.ParseBody[api.SandboxExtend](ctx, c)
	if err != nil {
		a.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("Error when parsing request: %s", err))

		return
	}

	hours := sandbox.DefaultExtendByHours
	if body.ExtendByHours != nil {
		hours = *body.ExtendByHours
	}

	ext, err := a.sandboxes.Extend(ctx, body.ProjectID, hours)
	if err != nil {
		a.sendSandboxError(c, "Error extending sandbox project", err)

		return
	}

	c.JSON(http.StatusOK, api.SandboxExtended{
		Detail:    fmt.Sprintf("Sandbox project expiry extended by %d hours successfully", hours),
		ProjectID: ext.ProjectID,
		NewExpiry: utils.FormatTimestamp(ext.NewExpiry),
	})
}
