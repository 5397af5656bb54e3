package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/logger"
)

const (
	extendedSuffix = "extended"
	restoredSuffix = "restored"
)

// Scheduler owns the deletion tasks of sandbox projects.
type Scheduler struct {
	tasks          TaskScheduler
	callback       CallbackResolver
	queue          string
	serviceAccount string
	logger         *zap.Logger
	now            func() time.Time
}

func NewScheduler(tasks TaskScheduler, callback CallbackResolver, queue, serviceAccount string, l *zap.Logger, now func() time.Time) *Scheduler {
	return &Scheduler{
		tasks:          tasks,
		callback:       callback,
		queue:          strings.TrimSuffix(queue, "/"),
		serviceAccount: serviceAccount,
		logger:         l,
		now:            now,
	}
}

func (s *Scheduler) TaskName(taskID string) string {
	return s.queue + "/tasks/" + taskID
}

// Schedule creates a task that deletes the project at the given time.
func (s *Scheduler) Schedule(ctx context.Context, projectID, taskID string, at time.Time) (DeletionTask, error) {
	base, err := s.callback.BaseURL(ctx)
	if err != nil {
		return DeletionTask{}, fmt.Errorf("resolving callback url: %w", err)
	}
	base = strings.TrimSuffix(base, "/")

	task := DeletionTask{
		Name:                s.TaskName(taskID),
		TargetURL:           base + DeletionPath(projectID),
		ScheduleTime:        at,
		ServiceAccountEmail: s.serviceAccount,
		Audience:            base,
	}

	created, err := s.tasks.CreateTask(ctx, s.queue, task)
	if err != nil {
		return DeletionTask{}, fmt.Errorf("creating task %s: %w", task.Name, err)
	}

	s.logger.Info("Deletion task scheduled",
		logger.WithProjectID(projectID),
		logger.WithTaskName(created.Name),
		zap.Time("schedule_time", created.ScheduleTime),
	)

	return created, nil
}

// Find returns the name of the project's pending deletion task. When the queue
// cannot be listed or holds no match, the name of the initial task is returned.
func (s *Scheduler) Find(ctx context.Context, projectID string) string {
	matches, err := s.matching(ctx, projectID)
	if err != nil {
		s.logger.Warn("Listing deletion tasks failed, falling back to the initial task name",
			logger.WithProjectID(projectID), zap.Error(err))
	}

	if len(matches) == 0 {
		return s.TaskName(projectID)
	}

	if len(matches) > 1 {
		s.logger.Warn("Multiple deletion tasks found for project",
			logger.WithProjectID(projectID), zap.Strings("tasks", matches))
	}

	return matches[0]
}

// matching lists the tasks that belong to the project: the initial task and
// any extended or restored replacement.
func (s *Scheduler) matching(ctx context.Context, projectID string) ([]string, error) {
	names, err := s.tasks.ListTaskNames(ctx, s.queue)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, name := range names {
		id := name[strings.LastIndex(name, "/")+1:]
		suffix, found := strings.CutPrefix(id, projectID)
		if found && (suffix == "" || strings.HasPrefix(suffix, "-"+extendedSuffix+"-") || strings.HasPrefix(suffix, "-"+restoredSuffix+"-")) {
			matches = append(matches, name)
		}
	}

	return matches, nil
}

// Extend moves the project's deletion time by the given hours. The old task is
// deleted before the new one is created; if the create fails a task at the old
// time is restored best-effort and the create error is returned.
func (s *Scheduler) Extend(ctx context.Context, projectID string, hours int) (Extension, error) {
	name := s.Find(ctx, projectID)

	current, err := s.tasks.GetTask(ctx, name)
	if err != nil {
		return Extension{}, &StepError{Step: StepLookupTask, ProjectID: projectID, Err: err}
	}

	newExpiry := current.ScheduleTime.Add(time.Duration(hours) * time.Hour)
	if newExpiry.Sub(s.now()) > MaxDurationHours*time.Hour {
		return Extension{}, &ValidationError{
			Field: "extend_by_hours",
			Message: fmt.Sprintf("Extending by %d hours moves the deletion of %s to %s, more than %d hours from now.",
				hours, projectID, newExpiry.UTC().Format(time.DateTime), MaxDurationHours),
		}
	}

	if err := s.tasks.DeleteTask(ctx, current.Name); err != nil {
		return Extension{}, &StepError{Step: StepDeleteTask, ProjectID: projectID, Err: err}
	}

	now := s.now().Unix()
	created, err := s.Schedule(ctx, projectID, fmt.Sprintf("%s-%s-%d", projectID, extendedSuffix, now), newExpiry)
	if err != nil {
		restored, restoreErr := s.Schedule(ctx, projectID, fmt.Sprintf("%s-%s-%d", projectID, restoredSuffix, now), current.ScheduleTime)
		if restoreErr != nil {
			s.logger.Error("Restoring deletion task failed, project has no scheduled deletion",
				logger.WithProjectID(projectID), zap.Error(restoreErr))
		} else {
			s.logger.Warn("Deletion task restored at the previous expiry",
				logger.WithProjectID(projectID), logger.WithTaskName(restored.Name))
		}

		return Extension{}, &StepError{Step: StepCreateTask, ProjectID: projectID, Err: err}
	}

	return Extension{
		ProjectID: projectID,
		OldExpiry: current.ScheduleTime,
		NewExpiry: created.ScheduleTime,
		TaskName:  created.Name,
	}, nil
}

// Cancel deletes every pending task of the project. Missing tasks are ignored.
func (s *Scheduler) Cancel(ctx context.Context, projectID string) error {
	matches, err := s.matching(ctx, projectID)
	if err != nil {
		return fmt.Errorf("listing deletion tasks: %w", err)
	}

	var errs []error
	for _, name := range matches {
		if err := s.tasks.DeleteTask(ctx, name); err != nil && !errors.Is(err, ErrTaskNotFound) {
			errs = append(errs, fmt.Errorf("deleting task %s: %w", name, err))

			continue
		}

		s.logger.Info("Deletion task cancelled", logger.WithProjectID(projectID), logger.WithTaskName(name))
	}

	return errors.Join(errs...)
}
