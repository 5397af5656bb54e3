package sandbox

import (
	"context"
	"sync"
	"time"
)

// MockProvider implements every provider capability for testing. CallLog returns
// the invoked method names in order.
type MockProvider struct {
	CreateProjectFunc  func(ctx context.Context, projectID, folderID string, labels map[string]string) (time.Time, error)
	DeleteProjectFunc  func(ctx context.Context, projectID string) (time.Time, error)
	ListProjectIDsFunc func(ctx context.Context, folderID string) ([]string, error)
	GrantRoleFunc      func(ctx context.Context, projectID, role string, members []string) error
	LinkBillingFunc    func(ctx context.Context, projectID, billingAccountID string) (bool, error)
	UnlinkBillingFunc  func(ctx context.Context, projectID string) error
	CreateTaskFunc     func(ctx context.Context, queue string, task DeletionTask) (DeletionTask, error)
	GetTaskFunc        func(ctx context.Context, name string) (DeletionTask, error)
	DeleteTaskFunc     func(ctx context.Context, name string) error
	ListTaskNamesFunc  func(ctx context.Context, queue string) ([]string, error)
	BaseURLFunc        func(ctx context.Context) (string, error)

	mu    sync.Mutex
	calls []string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		CreateProjectFunc: func(ctx context.Context, projectID, folderID string, labels map[string]string) (time.Time, error) {
			return time.Time{}, nil
		},
		DeleteProjectFunc:  func(ctx context.Context, projectID string) (time.Time, error) { return time.Time{}, nil },
		ListProjectIDsFunc: func(ctx context.Context, folderID string) ([]string, error) { return nil, nil },
		GrantRoleFunc:      func(ctx context.Context, projectID, role string, members []string) error { return nil },
		LinkBillingFunc:    func(ctx context.Context, projectID, billingAccountID string) (bool, error) { return true, nil },
		UnlinkBillingFunc:  func(ctx context.Context, projectID string) error { return nil },
		CreateTaskFunc:     func(ctx context.Context, queue string, task DeletionTask) (DeletionTask, error) { return task, nil },
		GetTaskFunc:        func(ctx context.Context, name string) (DeletionTask, error) { return DeletionTask{}, ErrTaskNotFound },
		DeleteTaskFunc:     func(ctx context.Context, name string) error { return nil },
		ListTaskNamesFunc:  func(ctx context.Context, queue string) ([]string, error) { return nil, nil },
		BaseURLFunc:        func(ctx context.Context) (string, error) { return "https://sandbox.example.run.app", nil },
	}
}

// Providers wires the mock into every capability.
func (m *MockProvider) Providers() Providers {
	return Providers{Projects: m, Access: m, Billing: m, Tasks: m, Callback: m}
}

func (m *MockProvider) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, call)
}

func (m *MockProvider) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.calls...)
}

func (m *MockProvider) CreateProject(ctx context.Context, projectID, folderID string, labels map[string]string) (time.Time, error) {
	m.record("CreateProject")
	return m.CreateProjectFunc(ctx, projectID, folderID, labels)
}

func (m *MockProvider) DeleteProject(ctx context.Context, projectID string) (time.Time, error) {
	m.record("DeleteProject")
	return m.DeleteProjectFunc(ctx, projectID)
}

func (m *MockProvider) ListProjectIDs(ctx context.Context, folderID string) ([]string, error) {
	m.record("ListProjectIDs")
	return m.ListProjectIDsFunc(ctx, folderID)
}

func (m *MockProvider) GrantRole(ctx context.Context, projectID, role string, members []string) error {
	m.record("GrantRole")
	return m.GrantRoleFunc(ctx, projectID, role, members)
}

func (m *MockProvider) LinkBilling(ctx context.Context, projectID, billingAccountID string) (bool, error) {
	m.record("LinkBilling")
	return m.LinkBillingFunc(ctx, projectID, billingAccountID)
}

func (m *MockProvider) UnlinkBilling(ctx context.Context, projectID string) error {
	m.record("UnlinkBilling")
	return m.UnlinkBillingFunc(ctx, projectID)
}

func (m *MockProvider) CreateTask(ctx context.Context, queue string, task DeletionTask) (DeletionTask, error) {
	m.record("CreateTask")
	return m.CreateTaskFunc(ctx, queue, task)
}

func (m *MockProvider) GetTask(ctx context.Context, name string) (DeletionTask, error) {
	m.record("GetTask")
	return m.GetTaskFunc(ctx, name)
}

func (m *MockProvider) DeleteTask(ctx context.Context, name string) error {
	m.record("DeleteTask")
	return m.DeleteTaskFunc(ctx, name)
}

func (m *MockProvider) ListTaskNames(ctx context.Context, queue string) ([]string, error) {
	m.record("ListTaskNames")
	return m.ListTaskNamesFunc(ctx, queue)
}

func (m *MockProvider) BaseURL(ctx context.Context) (string, error) {
	return m.BaseURLFunc(ctx)
}
