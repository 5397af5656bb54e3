package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/logger"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

const (
	ownerLabel = "sandbox-owner"
	teamLabel  = "sandbox-team"
)

func quotaLockKey(userEmail string) string {
	return "sandbox-quota:" + UserPrefix(userEmail)
}

// Create validates the request, enforces the user's quota and provisions the
// project: create, link billing, schedule deletion, grant access. A failed step
// is not rolled back.
func (m *Manager) Create(ctx context.Context, req Request) (Project, error) {
	ctx, span := m.tracer.Start(ctx, "create-sandbox")
	defer span.End()

	folderID, err := m.validator.Validate(req)
	if err != nil {
		return Project{}, err
	}

	requestedAt := m.now()
	projectID := GenerateProjectID(req.UserEmail, requestedAt)
	if !ValidProjectID(projectID) {
		return Project{}, &ValidationError{
			Field:   "user_email",
			Message: fmt.Sprintf("Project id %s derived from %s is not a valid project id.", projectID, req.UserEmail),
		}
	}

	telemetry.SetAttributes(ctx,
		telemetry.WithProjectID(projectID),
		telemetry.WithTeam(req.TeamName),
	)

	l := m.logger.With(
		logger.WithProjectID(projectID),
		logger.WithFolderID(folderID),
		logger.WithTeam(req.TeamName),
		logger.WithUser(req.UserEmail),
	)

	expiresAt := requestedAt.Add(time.Duration(req.RequestedDurationHours) * time.Hour)

	createdAt, err := m.reserve(ctx, l, req, projectID, folderID)
	if err != nil {
		return Project{}, err
	}

	billingEnabled, err := m.billing.LinkBilling(ctx, projectID, m.settings.BillingAccountID)
	if err != nil {
		return Project{}, m.provisionFailed(ctx, l, StepLinkBilling, projectID, err)
	}
	telemetry.ReportEvent(ctx, "billing linked", attribute.Bool("billing.enabled", billingEnabled))
	l.Info("Billing account linked", zap.Bool("billing_enabled", billingEnabled))

	task, err := m.scheduler.Schedule(ctx, projectID, projectID, expiresAt)
	if err != nil {
		return Project{}, m.provisionFailed(ctx, l, StepScheduleDeletion, projectID, err)
	}
	telemetry.ReportEvent(ctx, "deletion scheduled", telemetry.WithTaskName(task.Name))

	members := ownerMembers(req.UserEmail, req.AdditionalUsers)
	if err := m.access.GrantRole(ctx, projectID, m.settings.OwnerRole, members); err != nil {
		return Project{}, m.provisionFailed(ctx, l, StepGrantAccess, projectID, err)
	}
	telemetry.ReportEvent(ctx, "access granted")
	l.Info("Sandbox owners granted", zap.String("role", m.settings.OwnerRole), logger.WithUsers(members))

	m.createdCounter.Add(ctx, 1, metric.WithAttributes(telemetry.WithTeam(req.TeamName)))
	l.Info("Sandbox provisioned", zap.Time("expires_at", task.ScheduleTime))

	if createdAt.IsZero() {
		createdAt = requestedAt
	}

	return Project{
		ProjectID:          projectID,
		FolderID:           folderID,
		UserEmail:          req.UserEmail,
		AdditionalUsers:    req.AdditionalUsers,
		TeamName:           req.TeamName,
		RequestDescription: req.RequestDescription,
		BillingEnabled:     billingEnabled,
		CreatedAt:          createdAt,
		ExpiresAt:          task.ScheduleTime,
		DeletionTask:       task.Name,
	}, nil
}

// reserve checks the quota and creates the project while holding the user's
// lock, so concurrent requests cannot both pass the check.
func (m *Manager) reserve(ctx context.Context, l *zap.Logger, req Request, projectID, folderID string) (time.Time, error) {
	unlock, err := m.locker.Lock(ctx, quotaLockKey(req.UserEmail))
	if err != nil {
		if errors.Is(err, ErrLockNotObtained) {
			return time.Time{}, err
		}

		return time.Time{}, fmt.Errorf("acquiring quota lock: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			l.Warn("Releasing quota lock failed", zap.Error(err))
		}
	}()

	if err := m.quota.Check(ctx, req.UserEmail, folderID); err != nil {
		var quotaErr *QuotaExceededError
		if errors.As(err, &quotaErr) {
			l.Info("Sandbox quota reached", zap.Int("active", quotaErr.Active), zap.Int("max", quotaErr.Max))

			return time.Time{}, err
		}

		return time.Time{}, fmt.Errorf("checking quota: %w", err)
	}

	labels := map[string]string{
		ownerLabel: labelValue(UserPrefix(req.UserEmail)),
		teamLabel:  labelValue(req.TeamName),
	}

	createdAt, err := m.projects.CreateProject(ctx, projectID, folderID, labels)
	if err != nil {
		return time.Time{}, m.provisionFailed(ctx, l, StepCreateProject, projectID, err)
	}

	telemetry.ReportEvent(ctx, "project created")
	l.Info("Sandbox project created")

	return createdAt, nil
}

func (m *Manager) provisionFailed(ctx context.Context, l *zap.Logger, step Step, projectID string, err error) error {
	stepErr := &StepError{Step: step, ProjectID: projectID, Err: err}

	m.provisionFailedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("step", string(step))))
	telemetry.ReportCriticalError(ctx, "sandbox provisioning failed", err, attribute.String("step", string(step)))
	l.Error("Sandbox provisioning failed", zap.String("step", string(step)), zap.Error(err))

	return stepErr
}

// ownerMembers returns the IAM members for the requester and additional users,
// without duplicates.
func ownerMembers(userEmail string, additional []string) []string {
	seen := make(map[string]struct{}, len(additional)+1)
	members := make([]string, 0, len(additional)+1)

	for _, email := range append([]string{userEmail}, additional...) {
		key := strings.ToLower(email)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		members = append(members, "user:"+email)
	}

	return members
}
