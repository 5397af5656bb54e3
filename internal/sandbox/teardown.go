package sandbox

import (
	"context"

	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/logger"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

// Delete unlinks billing and then deletes the project. invokingTask is the name
// of the deletion task that triggered the call, empty for a direct request; in
// the latter case the project's pending deletion tasks are cancelled afterwards.
func (m *Manager) Delete(ctx context.Context, projectID, invokingTask string) (Teardown, error) {
	ctx, span := m.tracer.Start(ctx, "delete-sandbox")
	defer span.End()

	if err := checkProjectID(projectID); err != nil {
		return Teardown{}, err
	}

	telemetry.SetAttributes(ctx, telemetry.WithProjectID(projectID))
	l := m.logger.With(logger.WithProjectID(projectID))
	if invokingTask != "" {
		l = l.With(logger.WithTaskName(invokingTask))
	}

	if err := m.billing.UnlinkBilling(ctx, projectID); err != nil {
		telemetry.ReportCriticalError(ctx, "unlinking billing failed", err)

		return Teardown{}, &StepError{Step: StepUnlinkBilling, ProjectID: projectID, Err: err}
	}
	l.Info("Billing account unlinked")

	deletedAt, err := m.projects.DeleteProject(ctx, projectID)
	if err != nil {
		telemetry.ReportCriticalError(ctx, "deleting project failed", err)

		return Teardown{}, &StepError{Step: StepDeleteProject, ProjectID: projectID, Err: err}
	}
	if deletedAt.IsZero() {
		deletedAt = m.now()
	}

	m.deletedCounter.Add(ctx, 1)
	l.Info("Sandbox project deleted")

	if invokingTask == "" {
		if err := m.scheduler.Cancel(ctx, projectID); err != nil {
			telemetry.ReportError(ctx, "cancelling deletion task failed", err)
			l.Warn("Cancelling pending deletion task failed", zap.Error(err))
		}
	}

	return Teardown{ProjectID: projectID, DeletedAt: deletedAt}, nil
}
