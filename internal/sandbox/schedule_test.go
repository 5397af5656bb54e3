package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extendProjectID = "alice-1700000000"

func TestExtend(t *testing.T) {
	t.Parallel()

	oldExpiry := testNow.Add(2 * time.Hour)
	current := testQueue + "/tasks/" + extendProjectID

	mock := NewMockProvider()
	mock.ListTaskNamesFunc = func(context.Context, string) ([]string, error) {
		return []string{testQueue + "/tasks/bob-1700000000", current}, nil
	}
	mock.GetTaskFunc = func(_ context.Context, name string) (DeletionTask, error) {
		require.Equal(t, current, name)

		return DeletionTask{Name: name, ScheduleTime: oldExpiry}, nil
	}
	var deleted string
	mock.DeleteTaskFunc = func(_ context.Context, name string) error {
		deleted = name

		return nil
	}
	var created DeletionTask
	mock.CreateTaskFunc = func(_ context.Context, _ string, task DeletionTask) (DeletionTask, error) {
		created = task

		return task, nil
	}

	m := newTestManager(t, mock)
	ext, err := m.Extend(t.Context(), extendProjectID, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"ListTaskNames", "GetTask", "DeleteTask", "CreateTask"}, mock.CallLog())
	assert.Equal(t, current, deleted)
	assert.Equal(t, oldExpiry.Add(4*3600*time.Second), ext.NewExpiry)
	assert.Equal(t, oldExpiry, ext.OldExpiry)
	assert.Equal(t, testQueue+"/tasks/alice-1700000000-extended-1700000000", created.Name)
	assert.Equal(t, "https://sandbox.example.run.app/api/v1/gcp/delete/"+extendProjectID, created.TargetURL)
	assert.Equal(t, created.Name, ext.TaskName)
}

func TestExtendFallsBackToInitialTaskName(t *testing.T) {
	t.Parallel()

	mock := NewMockProvider()
	mock.ListTaskNamesFunc = func(context.Context, string) ([]string, error) {
		return nil, errors.New("permission denied")
	}
	var looked string
	mock.GetTaskFunc = func(_ context.Context, name string) (DeletionTask, error) {
		looked = name

		return DeletionTask{Name: name, ScheduleTime: testNow}, nil
	}

	m := newTestManager(t, mock)
	_, err := m.Extend(t.Context(), extendProjectID, 1)
	require.NoError(t, err)
	assert.Equal(t, testQueue+"/tasks/"+extendProjectID, looked)
}

func TestExtendTaskNotFound(t *testing.T) {
	t.Parallel()

	mock := NewMockProvider()
	m := newTestManager(t, mock)

	_, err := m.Extend(t.Context(), extendProjectID, 4)
	require.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, []string{"ListTaskNames", "GetTask"}, mock.CallLog())
}

func TestExtendRestoresOnCreateFailure(t *testing.T) {
	t.Parallel()

	oldExpiry := testNow.Add(time.Hour)
	boom := errors.New("boom")

	mock := NewMockProvider()
	mock.GetTaskFunc = func(_ context.Context, name string) (DeletionTask, error) {
		return DeletionTask{Name: name, ScheduleTime: oldExpiry}, nil
	}
	var attempts []DeletionTask
	mock.CreateTaskFunc = func(_ context.Context, _ string, task DeletionTask) (DeletionTask, error) {
		attempts = append(attempts, task)
		if len(attempts) == 1 {
			return DeletionTask{}, boom
		}

		return task, nil
	}

	m := newTestManager(t, mock)
	_, err := m.Extend(t.Context(), extendProjectID, 4)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepCreateTask, stepErr.Step)
	require.ErrorIs(t, err, boom)

	require.Len(t, attempts, 2)
	assert.Equal(t, oldExpiry.Add(4*time.Hour), attempts[0].ScheduleTime)
	assert.Equal(t, testQueue+"/tasks/alice-1700000000-restored-1700000000", attempts[1].Name)
	assert.Equal(t, oldExpiry, attempts[1].ScheduleTime)
}

func TestExtendValidation(t *testing.T) {
	t.Parallel()

	mock := NewMockProvider()
	m := newTestManager(t, mock)

	for _, tc := range []struct {
		projectID string
		hours     int
		field     string
	}{
		{projectID: extendProjectID, hours: 0, field: "extend_by_hours"},
		{projectID: extendProjectID, hours: MaxDurationHours + 1, field: "extend_by_hours"},
		{projectID: extendProjectID, hours: 3_000_000, field: "extend_by_hours"},
		{projectID: "BAD", hours: 4, field: "project_id"},
	} {
		_, err := m.Extend(t.Context(), tc.projectID, tc.hours)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, tc.field, vErr.Field)
	}
	assert.Empty(t, mock.CallLog())
}

func TestSchedulerCallbackFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockProvider()
	mock.BaseURLFunc = func(context.Context) (string, error) { return "", errors.New("no uri") }

	m := newTestManager(t, mock)
	_, err := m.scheduler.Schedule(t.Context(), extendProjectID, extendProjectID, testNow)
	require.Error(t, err)
	assert.Empty(t, mock.CallLog())
}

func TestSchedulerMatching(t *testing.T) {
	t.Parallel()

	names := []string{
		testQueue + "/tasks/" + extendProjectID,
		testQueue + "/tasks/" + extendProjectID + "-extended-1700000100",
		testQueue + "/tasks/" + extendProjectID + "-restored-1700000200",
		// alice.1700000000@ gets project ids sharing the prefix.
		testQueue + "/tasks/" + extendProjectID + "-1700000300",
		testQueue + "/tasks/x" + extendProjectID,
		testQueue + "/tasks/bob-1700000000",
	}

	mock := NewMockProvider()
	mock.ListTaskNamesFunc = func(context.Context, string) ([]string, error) {
		return names, nil
	}

	m := newTestManager(t, mock)
	matches, err := m.scheduler.matching(t.Context(), extendProjectID)
	require.NoError(t, err)
	assert.Equal(t, names[:3], matches)
}

func TestExtendBeyondTaskHorizon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current time.Time
		hours   int
		wantErr bool
	}{
		{name: "lands on the horizon", current: testNow.Add(700 * time.Hour), hours: 20},
		{name: "past the horizon", current: testNow.Add(700 * time.Hour), hours: 21, wantErr: true},
		{name: "max hours on a due task", current: testNow.Add(time.Hour), hours: MaxDurationHours, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockProvider()
			mock.GetTaskFunc = func(_ context.Context, name string) (DeletionTask, error) {
				return DeletionTask{Name: name, ScheduleTime: tt.current}, nil
			}

			m := newTestManager(t, mock)
			ext, err := m.Extend(t.Context(), extendProjectID, tt.hours)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.current.Add(time.Duration(tt.hours)*time.Hour), ext.NewExpiry)

				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "extend_by_hours", vErr.Field)
			assert.NotContains(t, mock.CallLog(), "DeleteTask")
			assert.NotContains(t, mock.CallLog(), "CreateTask")
		})
	}
}
