package sandbox

import (
	"errors"
	"fmt"
)

var (
	ErrQuotaExceeded   = errors.New("sandbox quota exceeded")
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("deletion task not found")
	ErrLockNotObtained = errors.New("another request for this user is in progress")
)

// ValidationError rejects a request before any remote call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type QuotaExceededError struct {
	UserEmail string
	Max       int
	Active    int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("User %s has reached maximum number of allowed active sandbox projects (%d).", e.UserEmail, e.Max)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

type Step string

const (
	StepCreateProject    Step = "create_project"
	StepLinkBilling      Step = "link_billing"
	StepScheduleDeletion Step = "schedule_deletion"
	StepGrantAccess      Step = "grant_access"
	StepUnlinkBilling    Step = "unlink_billing"
	StepDeleteProject    Step = "delete_project"
	StepLookupTask       Step = "lookup_task"
	StepDeleteTask       Step = "delete_task"
	StepCreateTask       Step = "create_task"
)

// StepError reports which remote step failed. Earlier steps are not undone, so
// ProjectID names a project that may be left partially provisioned.
type StepError struct {
	Step      Step
	ProjectID string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed for project %s: %v", e.Step, e.ProjectID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
