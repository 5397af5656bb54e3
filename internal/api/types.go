package api

// SandboxCreate defines model for SandboxCreate.
type SandboxCreate struct {
	UserEmail              string    `json:"user_email"`
	TeamName               string    `json:"team_name"`
	RequestedDurationHours *int      `json:"requested_duration_hours,omitempty"`
	RequestDescription     *string   `json:"request_description,omitempty"`
	AdditionalUsers        *[]string `json:"additional_users,omitempty"`
}

// SandboxCreated defines model for SandboxCreated.
type SandboxCreated struct {
	Detail             string   `json:"detail"`
	UserEmail          string   `json:"user_email"`
	AdditionalUsers    []string `json:"additional_users"`
	TeamName           string   `json:"team_name"`
	ProjectID          string   `json:"project_id"`
	FolderID           string   `json:"folder_id"`
	RequestDescription string   `json:"request_description"`
	BillingEnabled     bool     `json:"billing_enabled"`
	ProjectURL         string   `json:"project_url"`
	CreatedAt          string   `json:"created_at"`
	ExpiresAt          string   `json:"expires_at"`
}

// SandboxExtend defines model for SandboxExtend.
type SandboxExtend struct {
	ProjectID     string `json:"project_id"`
	ExtendByHours *int   `json:"extend_by_hours,omitempty"`
}

// SandboxExtended defines model for SandboxExtended.
type SandboxExtended struct {
	Detail    string `json:"detail"`
	ProjectID string `json:"project_id"`
	NewExpiry string `json:"new_expiry"`
}

// SandboxDeleted defines model for SandboxDeleted.
type SandboxDeleted struct {
	Detail    string `json:"detail"`
	ProjectID string `json:"project_id"`
	DeletedAt string `json:"deleted_at"`
}

// Error defines model for Error.
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// DeleteGcpSandboxParams defines parameters for DeleteGcpSandbox.
type DeleteGcpSandboxParams struct {
	XCloudTasksTaskName *string `json:"X-CloudTasks-TaskName,omitempty"`
}
