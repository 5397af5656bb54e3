package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/utils"
)

func (a *APIStore) PostApiV1GcpCreate(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := utils.ParseBody[api.SandboxCreate](ctx, c)
	if err != nil {
		a.sendAPIStoreError(c, http.StatusBadRequest, fmt.Sprintf("Error when parsing request: %s", err))

		return
	}

	project, err := a.sandboxes.Create(ctx, createRequest(body))
	if err != nil {
		a.sendSandboxError(c, "Error creating sandbox project", err)

		return
	}

	c.JSON(http.StatusOK, api.SandboxCreated{
		Detail:             "Sandbox project provisioned successfully",
		UserEmail:          project.UserEmail,
		AdditionalUsers:    project.AdditionalUsers,
		TeamName:           project.TeamName,
		ProjectID:          project.ProjectID,
		FolderID:           project.FolderID,
		RequestDescription: project.RequestDescription,
		BillingEnabled:     project.BillingEnabled,
		ProjectURL:         project.ConsoleURL(),
		CreatedAt:          utils.FormatTimestamp(project.CreatedAt),
		ExpiresAt:          utils.FormatTimestamp(project.ExpiresAt),
	})
}

func createRequest(body api.SandboxCreate) sandbox.Request {
	req := sandbox.Request{
		UserEmail:              body.UserEmail,
		TeamName:               body.TeamName,
		AdditionalUsers:        []string{},
		RequestedDurationHours: sandbox.DefaultDurationHours,
		RequestDescription:     sandbox.DefaultRequestDescription,
	}

	if body.AdditionalUsers != nil {
		req.AdditionalUsers = *body.AdditionalUsers
	}

	if body.RequestedDurationHours != nil {
		req.RequestedDurationHours = *body.RequestedDurationHours
	}

	if body.RequestDescription != nil {
		req.RequestDescription = *body.RequestDescription
	}

	return req
}
