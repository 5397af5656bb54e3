package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
)

type fakeSandboxes struct {
	created  sandbox.Request
	extended struct {
		projectID string
		hours     int
	}
	err error
}

func (f *fakeSandboxes) Create(_ context.Context, req sandbox.Request) (sandbox.Project, error) {
	f.created = req
	if f.err != nil {
		return sandbox.Project{}, f.err
	}

	return sandbox.Project{
		ProjectID:       "alice-1700000000",
		UserEmail:       req.UserEmail,
		TeamName:        req.TeamName,
		AdditionalUsers: req.AdditionalUsers,
		CreatedAt:       time.Unix(1700000000, 0),
		ExpiresAt:       time.Unix(1700007200, 0),
	}, nil
}

func (f *fakeSandboxes) Extend(_ context.Context, projectID string, hours int) (sandbox.Extension, error) {
	f.extended.projectID = projectID
	f.extended.hours = hours
	if f.err != nil {
		return sandbox.Extension{}, f.err
	}

	return sandbox.Extension{ProjectID: projectID, NewExpiry: time.Unix(1700021600, 0)}, nil
}

func (f *fakeSandboxes) Teams() []string {
	return []string{"data", "platform"}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args

	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	return text.Text
}

func TestCreateTool(t *testing.T) {
	t.Parallel()

	fake := &fakeSandboxes{}
	tl := &tools{sandboxes: fake, logger: zaptest.NewLogger(t)}

	result, err := tl.create(t.Context(), callRequest(createToolName, map[string]any{
		"user_email":       "alice@corp.example",
		"team_name":        "platform",
		"additional_users": []any{"bob@corp.example"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, sandbox.DefaultDurationHours, fake.created.RequestedDurationHours)
	assert.Equal(t, sandbox.DefaultRequestDescription, fake.created.RequestDescription)
	assert.Equal(t, []string{"bob@corp.example"}, fake.created.AdditionalUsers)

	var created api.SandboxCreated
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &created))
	assert.Equal(t, "alice-1700000000", created.ProjectID)
	assert.Equal(t, "2023-11-14 22:13:20 UTC", created.CreatedAt)
}

func TestCreateToolMissingArgument(t *testing.T) {
	t.Parallel()

	tl := &tools{sandboxes: &fakeSandboxes{}, logger: zaptest.NewLogger(t)}

	result, err := tl.create(t.Context(), callRequest(createToolName, map[string]any{"team_name": "platform"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestExtendTool(t *testing.T) {
	t.Parallel()

	fake := &fakeSandboxes{}
	tl := &tools{sandboxes: fake, logger: zaptest.NewLogger(t)}

	result, err := tl.extend(t.Context(), callRequest(extendToolName, map[string]any{
		"project_id":      "alice-1700000000",
		"extend_by_hours": float64(6),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 6, fake.extended.hours)
	assert.Contains(t, resultText(t, result), "extended by 6 hours")
}

func TestExtendToolError(t *testing.T) {
	t.Parallel()

	fake := &fakeSandboxes{err: sandbox.ErrTaskNotFound}
	tl := &tools{sandboxes: fake, logger: zaptest.NewLogger(t)}

	result, err := tl.extend(t.Context(), callRequest(extendToolName, map[string]any{"project_id": "alice-1700000000"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, sandbox.DefaultExtendByHours, fake.extended.hours)
	assert.Contains(t, resultText(t, result), "deletion task not found")
}

func TestNewServerListsTools(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeSandboxes{}, zaptest.NewLogger(t), "test")

	resp := s.HandleMessage(t.Context(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.Contains(t, string(data), createToolName)
	assert.Contains(t, string(data), extendToolName)
	assert.Contains(t, string(data), `"platform"`)
}
