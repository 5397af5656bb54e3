package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)

	l, err := NewLogger(LoggerConfig{
		ServiceName:   "sandbox-provisioner",
		IsDebug:       true,
		InitialFields: []zap.Field{zap.String("env", "test")},
		Cores:         []zapcore.Core{core},
	})
	require.NoError(t, err)

	l.Debug("linking billing", WithProjectID("alice-smith-1700000000"), WithUsers([]string{"a@corp.example", "b@corp.example"}))

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "linking billing", entries[0].Message)
	assert.Equal(t, "sandbox-provisioner", fields["service"])
	assert.Equal(t, "test", fields["env"])
	assert.Equal(t, "alice-smith-1700000000", fields["project.id"])
	assert.Equal(t, "a@corp.example,b@corp.example", fields["user.emails"])
}
