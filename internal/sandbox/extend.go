package sandbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/logger"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

// Extend postpones the project's scheduled deletion by hours.
func (m *Manager) Extend(ctx context.Context, projectID string, hours int) (Extension, error) {
	ctx, span := m.tracer.Start(ctx, "extend-sandbox")
	defer span.End()

	if err := checkProjectID(projectID); err != nil {
		return Extension{}, err
	}

	if hours < 1 || hours > MaxDurationHours {
		return Extension{}, &ValidationError{
			Field:   "extend_by_hours",
			Message: fmt.Sprintf("extend_by_hours must be between 1 and %d, got %d.", MaxDurationHours, hours),
		}
	}

	telemetry.SetAttributes(ctx, telemetry.WithProjectID(projectID))

	ext, err := m.scheduler.Extend(ctx, projectID, hours)
	if err != nil {
		telemetry.ReportCriticalError(ctx, "extending sandbox failed", err)
		m.logger.Error("Extending sandbox failed", logger.WithProjectID(projectID), zap.Error(err))

		return Extension{}, err
	}

	m.extendedCounter.Add(ctx, 1)
	m.logger.Info("Sandbox expiry extended",
		logger.WithProjectID(projectID),
		logger.WithTaskName(ext.TaskName),
		zap.Time("old_expiry", ext.OldExpiry),
		zap.Time("new_expiry", ext.NewExpiry),
		zap.Int("hours", hours),
	)

	return ext, nil
}
