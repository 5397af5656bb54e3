package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/utils"
)

func (a *APIStore) DeleteApiV1GcpDeleteProjectId(c *gin.Context, projectID string, params api.DeleteGcpSandboxParams) {
	ctx := c.Request.Context()

	invokingTask := ""
	if params.XCloudTasksTaskName != nil {
		invokingTask = *params.XCloudTasksTaskName
	}

	td, err := a.sandboxes.Delete(ctx, projectID, invokingTask)
	if err != nil {
		a.sendSandboxError(c, "Error deleting sandbox project", err)

		return
	}

	c.JSON(http.StatusOK, api.SandboxDeleted{
		Detail:    "Sandbox project deleted successfully",
		ProjectID: td.ProjectID,
		DeletedAt: utils.FormatTimestamp(td.DeletedAt),
	})
}
