package sandbox

import (
	"fmt"
	"time"
)

const (
	DefaultDurationHours      = 2
	DefaultRequestDescription = "POC On "
	DefaultExtendByHours      = 4
	// MaxDurationHours is the furthest Cloud Tasks can schedule a task ahead.
	MaxDurationHours = 720

	consoleURLFormat = "https://console.cloud.google.com/welcome?project=%s"
	deletionPath     = "/api/v1/gcp/delete/"
)

type Request struct {
	UserEmail              string
	AdditionalUsers        []string
	TeamName               string
	RequestedDurationHours int
	RequestDescription     string
}

// Project is the outcome of a successful provisioning.
type Project struct {
	ProjectID          string
	FolderID           string
	UserEmail          string
	AdditionalUsers    []string
	TeamName           string
	RequestDescription string
	BillingEnabled     bool
	CreatedAt          time.Time
	ExpiresAt          time.Time
	DeletionTask       string
}

func (p Project) ConsoleURL() string {
	return ConsoleURL(p.ProjectID)
}

func ConsoleURL(projectID string) string {
	return fmt.Sprintf(consoleURLFormat, projectID)
}

type DeletionTask struct {
	Name                string
	TargetURL           string
	ScheduleTime        time.Time
	ServiceAccountEmail string
	Audience            string
}

type Extension struct {
	ProjectID string
	OldExpiry time.Time
	NewExpiry time.Time
	TaskName  string
}

type Teardown struct {
	ProjectID string
	DeletedAt time.Time
}

// DeletionPath is the route deletion tasks call for the project.
func DeletionPath(projectID string) string {
	return deletionPath + projectID
}
