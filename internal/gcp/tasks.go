package gcp

import (
	"context"
	"errors"
	"fmt"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
)

var _ sandbox.TaskScheduler = (*Tasks)(nil)

type Tasks struct {
	client   *cloudtasks.Client
	timeouts Timeouts
}

func NewTasks(client *cloudtasks.Client, timeouts Timeouts) *Tasks {
	return &Tasks{client: client, timeouts: timeouts}
}

func (t *Tasks) CreateTask(ctx context.Context, queue string, task sandbox.DeletionTask) (sandbox.DeletionTask, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeouts.Call)
	defer cancel()

	created, err := t.client.CreateTask(ctx, &cloudtaskspb.CreateTaskRequest{
		Parent: queue,
		Task:   toTaskProto(task),
	})
	if err != nil {
		return sandbox.DeletionTask{}, fmt.Errorf("failed to create task in %s: %w", queue, err)
	}

	return fromTaskProto(created), nil
}

func (t *Tasks) GetTask(ctx context.Context, name string) (sandbox.DeletionTask, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeouts.Call)
	defer cancel()

	task, err := t.client.GetTask(ctx, &cloudtaskspb.GetTaskRequest{Name: name}, retryTransient())
	if err != nil {
		return sandbox.DeletionTask{}, fmt.Errorf("failed to get task %s: %w", name, notFound(err, sandbox.ErrTaskNotFound))
	}

	return fromTaskProto(task), nil
}

func (t *Tasks) DeleteTask(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeouts.Call)
	defer cancel()

	if err := t.client.DeleteTask(ctx, &cloudtaskspb.DeleteTaskRequest{Name: name}, retryTransient()); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", name, notFound(err, sandbox.ErrTaskNotFound))
	}

	return nil
}

func (t *Tasks) ListTaskNames(ctx context.Context, queue string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeouts.Call)
	defer cancel()

	it := t.client.ListTasks(ctx, &cloudtaskspb.ListTasksRequest{Parent: queue}, retryTransient())

	var names []string
	for {
		task, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to list tasks in %s: %w", queue, err)
		}

		names = append(names, task.GetName())
	}

	return names, nil
}

func toTaskProto(task sandbox.DeletionTask) *cloudtaskspb.Task {
	return &cloudtaskspb.Task{
		Name:         task.Name,
		ScheduleTime: timestamppb.New(task.ScheduleTime),
		MessageType: &cloudtaskspb.Task_HttpRequest{
			HttpRequest: &cloudtaskspb.HttpRequest{
				Url:        task.TargetURL,
				HttpMethod: cloudtaskspb.HttpMethod_DELETE,
				Headers:    map[string]string{"Content-Type": "application/json"},
				AuthorizationHeader: &cloudtaskspb.HttpRequest_OidcToken{
					OidcToken: &cloudtaskspb.OidcToken{
						ServiceAccountEmail: task.ServiceAccountEmail,
						Audience:            task.Audience,
					},
				},
			},
		},
	}
}

func fromTaskProto(task *cloudtaskspb.Task) sandbox.DeletionTask {
	req := task.GetHttpRequest()

	return sandbox.DeletionTask{
		Name:                task.GetName(),
		TargetURL:           req.GetUrl(),
		ScheduleTime:        task.GetScheduleTime().AsTime(),
		ServiceAccountEmail: req.GetOidcToken().GetServiceAccountEmail(),
		Audience:            req.GetOidcToken().GetAudience(),
	}
}
