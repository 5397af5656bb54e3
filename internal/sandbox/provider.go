package sandbox

import (
	"context"
	"time"
)

// ProjectLifecycle creates, deletes and lists sandbox projects.
type ProjectLifecycle interface {
	// CreateProject creates the project under the folder and waits until it exists.
	// It returns the provider's creation time.
	CreateProject(ctx context.Context, projectID, folderID string, labels map[string]string) (time.Time, error)
	// DeleteProject deletes the project and waits for the operation to finish.
	// It returns ErrProjectNotFound if the project does not exist.
	DeleteProject(ctx context.Context, projectID string) (time.Time, error)
	// ListProjectIDs returns the ids of the active projects under the folder.
	ListProjectIDs(ctx context.Context, folderID string) ([]string, error)
}

type AccessGranter interface {
	// GrantRole adds members to the role binding, keeping existing bindings.
	GrantRole(ctx context.Context, projectID, role string, members []string) error
}

type BillingLinker interface {
	LinkBilling(ctx context.Context, projectID, billingAccountID string) (enabled bool, err error)
	// UnlinkBilling detaches the project from any billing account.
	UnlinkBilling(ctx context.Context, projectID string) error
}

// TaskScheduler manages deletion tasks in a queue. Task names are fully
// qualified: <queue>/tasks/<task id>.
type TaskScheduler interface {
	CreateTask(ctx context.Context, queue string, task DeletionTask) (DeletionTask, error)
	// GetTask returns ErrTaskNotFound if the task does not exist.
	GetTask(ctx context.Context, name string) (DeletionTask, error)
	DeleteTask(ctx context.Context, name string) error
	ListTaskNames(ctx context.Context, queue string) ([]string, error)
}

// CallbackResolver returns the base URL that deletion tasks call back into.
type CallbackResolver interface {
	BaseURL(ctx context.Context) (string, error)
}

// Locker serializes work on a key. The returned function releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// Providers bundles the capabilities the manager depends on.
type Providers struct {
	Projects ProjectLifecycle
	Access   AccessGranter
	Billing  BillingLinker
	Tasks    TaskScheduler
	Callback CallbackResolver
	// Locker is optional, a nil Locker disables quota serialization.
	Locker Locker
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
