package logger

import (
	"strings"

	"go.uber.org/zap"
)

func WithProjectID(projectID string) zap.Field {
	return zap.String("project.id", projectID)
}

func WithFolderID(folderID string) zap.Field {
	return zap.String("folder.id", folderID)
}

func WithTeam(team string) zap.Field {
	return zap.String("team.name", team)
}

func WithUser(email string) zap.Field {
	return zap.String("user.email", email)
}

func WithUsers(emails []string) zap.Field {
	return zap.String("user.emails", strings.Join(emails, ","))
}

func WithTaskName(taskName string) zap.Field {
	return zap.String("task.name", taskName)
}

func WithServiceInstanceID(instanceID string) zap.Field {
	return zap.String("service.instance.id", instanceID)
}
