package gcp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

func TestNewClientsWithTelemetry(t *testing.T) {
	t.Parallel()

	clients, err := NewClients(t.Context(),
		WithTelemetry(telemetry.NewNoopClient()),
		option.WithoutAuthentication(),
		option.WithEndpoint("127.0.0.1:1"),
	)
	require.NoError(t, err)
	require.NotNil(t, clients.Projects)
	require.NotNil(t, clients.Services)
	require.NoError(t, clients.Close())
}
