package gcp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/iam/apiv1/iampb"
	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"google.golang.org/api/iterator"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
)

// iamPolicyVersion 3 keeps conditional bindings intact on read-modify-write.
const iamPolicyVersion = 3

var (
	_ sandbox.ProjectLifecycle = (*Projects)(nil)
	_ sandbox.AccessGranter    = (*Projects)(nil)
)

type Projects struct {
	client   *resourcemanager.ProjectsClient
	timeouts Timeouts
}

func NewProjects(client *resourcemanager.ProjectsClient, timeouts Timeouts) *Projects {
	return &Projects{client: client, timeouts: timeouts}
}

func (p *Projects) CreateProject(ctx context.Context, projectID, folderID string, labels map[string]string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Operation)
	defer cancel()

	op, err := p.client.CreateProject(ctx, &resourcemanagerpb.CreateProjectRequest{
		Project: &resourcemanagerpb.Project{
			ProjectId:   projectID,
			Parent:      folderID,
			DisplayName: projectID,
			Labels:      labels,
		},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create project %s: %w", projectID, err)
	}

	project, err := op.Wait(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed waiting for project %s creation: %w", projectID, err)
	}

	return project.GetCreateTime().AsTime(), nil
}

func (p *Projects) DeleteProject(ctx context.Context, projectID string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Operation)
	defer cancel()

	op, err := p.client.DeleteProject(ctx, &resourcemanagerpb.DeleteProjectRequest{Name: projectName(projectID)})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to delete project %s: %w", projectID, notFound(err, sandbox.ErrProjectNotFound))
	}

	project, err := op.Wait(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed waiting for project %s deletion: %w", projectID, notFound(err, sandbox.ErrProjectNotFound))
	}

	if project.GetDeleteTime() == nil {
		return time.Time{}, nil
	}

	return project.GetDeleteTime().AsTime(), nil
}

func (p *Projects) ListProjectIDs(ctx context.Context, folderID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Call)
	defer cancel()

	it := p.client.ListProjects(ctx, &resourcemanagerpb.ListProjectsRequest{Parent: folderID}, retryTransient())

	var ids []string
	for {
		project, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to list projects in %s: %w", folderID, err)
		}

		if project.GetState() != resourcemanagerpb.Project_ACTIVE {
			continue
		}

		ids = append(ids, project.GetProjectId())
	}

	return ids, nil
}

func (p *Projects) GrantRole(ctx context.Context, projectID, role string, members []string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Call)
	defer cancel()

	resource := projectName(projectID)

	policy, err := p.client.GetIamPolicy(ctx, &iampb.GetIamPolicyRequest{
		Resource: resource,
		Options:  &iampb.GetPolicyOptions{RequestedPolicyVersion: iamPolicyVersion},
	}, retryTransient())
	if err != nil {
		return fmt.Errorf("failed to get iam policy of %s: %w", projectID, err)
	}

	if !addBinding(policy, role, members) {
		return nil
	}
	policy.Version = iamPolicyVersion

	// SetIamPolicy carries the etag read above, a concurrent change fails instead of being overwritten.
	if _, err := p.client.SetIamPolicy(ctx, &iampb.SetIamPolicyRequest{Resource: resource, Policy: policy}); err != nil {
		return fmt.Errorf("failed to set iam policy of %s: %w", projectID, err)
	}

	return nil
}

// addBinding adds members to the unconditional binding of role and reports
// whether the policy changed.
func addBinding(policy *iampb.Policy, role string, members []string) bool {
	var binding *iampb.Binding
	for _, b := range policy.GetBindings() {
		if b.GetRole() == role && b.GetCondition() == nil {
			binding = b

			break
		}
	}

	if binding == nil {
		binding = &iampb.Binding{Role: role}
		policy.Bindings = append(policy.Bindings, binding)
	}

	changed := false
	for _, member := range members {
		if slices.Contains(binding.Members, member) {
			continue
		}

		binding.Members = append(binding.Members, member)
		changed = true
	}

	return changed
}
