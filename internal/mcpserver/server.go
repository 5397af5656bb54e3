package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/utils"
)

const (
	serverName = "gcp-sandbox-provisioner"

	createToolName = "create_gcp_sandbox"
	extendToolName = "extend_gcp_sandbox"
)

// Sandboxes is the part of the sandbox lifecycle offered as tools.
type Sandboxes interface {
	Create(ctx context.Context, req sandbox.Request) (sandbox.Project, error)
	Extend(ctx context.Context, projectID string, hours int) (sandbox.Extension, error)
	Teams() []string
}

type tools struct {
	sandboxes Sandboxes
	logger    *zap.Logger
}

// NewServer exposes sandbox creation and extension as MCP tools.
func NewServer(sandboxes Sandboxes, l *zap.Logger, version string) *server.MCPServer {
	t := &tools{sandboxes: sandboxes, logger: l}

	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	s.AddTool(createTool(sandboxes.Teams()), t.create)
	s.AddTool(extendTool(), t.extend)

	return s
}

// NewHandler serves the MCP server over streamable HTTP. Sessions are not
// kept, so any instance can answer any request.
func NewHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}

func createTool(teams []string) mcp.Tool {
	return mcp.NewTool(createToolName,
		mcp.WithDescription("Create a temporary Google Cloud sandbox project that is deleted automatically after the requested duration."),
		mcp.WithString("user_email",
			mcp.Required(),
			mcp.Description("Email address of the requesting user. Must belong to an authorized domain."),
		),
		mcp.WithString("team_name",
			mcp.Required(),
			mcp.Description("Team the sandbox belongs to."),
			mcp.Enum(teams...),
		),
		mcp.WithNumber("requested_duration_hours",
			mcp.Description("Hours until the project is deleted."),
			mcp.DefaultNumber(sandbox.DefaultDurationHours),
			mcp.Min(1),
			mcp.Max(sandbox.MaxDurationHours),
		),
		mcp.WithString("request_description",
			mcp.Description("Purpose of the sandbox."),
			mcp.DefaultString(sandbox.DefaultRequestDescription),
		),
		mcp.WithArray("additional_users",
			mcp.Description("Additional users granted ownership of the project."),
			mcp.WithStringItems(),
		),
	)
}

func extendTool() mcp.Tool {
	return mcp.NewTool(extendToolName,
		mcp.WithDescription("Postpone the scheduled deletion of a sandbox project."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Id of the sandbox project."),
		),
		mcp.WithNumber("extend_by_hours",
			mcp.Description("Hours to add to the current expiry."),
			mcp.DefaultNumber(sandbox.DefaultExtendByHours),
			mcp.Min(1),
			mcp.Max(sandbox.MaxDurationHours),
		),
	)
}

func (t *tools) create(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userEmail, err := request.RequireString("user_email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	teamName, err := request.RequireString("team_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	project, err := t.sandboxes.Create(ctx, sandbox.Request{
		UserEmail:              userEmail,
		TeamName:               teamName,
		AdditionalUsers:        request.GetStringSlice("additional_users", []string{}),
		RequestedDurationHours: request.GetInt("requested_duration_hours", sandbox.DefaultDurationHours),
		RequestDescription:     request.GetString("request_description", sandbox.DefaultRequestDescription),
	})
	if err != nil {
		t.logger.Warn("MCP sandbox creation failed", zap.String("tool", createToolName), zap.Error(err))

		return mcp.NewToolResultError(fmt.Sprintf("Error creating sandbox project: %s", err)), nil
	}

	return jsonResult(api.SandboxCreated{
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

func (t *tools) extend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hours := request.GetInt("extend_by_hours", sandbox.DefaultExtendByHours)

	ext, err := t.sandboxes.Extend(ctx, projectID, hours)
	if err != nil {
		t.logger.Warn("MCP sandbox extension failed", zap.String("tool", extendToolName), zap.Error(err))

		return mcp.NewToolResultError(fmt.Sprintf("Error extending sandbox project: %s", err)), nil
	}

	return jsonResult(api.SandboxExtended{
		Detail:    fmt.Sprintf("Sandbox project expiry extended by %d hours successfully", hours),
		ProjectID: ext.ProjectID,
		NewExpiry: utils.FormatTimestamp(ext.NewExpiry),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}
