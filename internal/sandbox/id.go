package sandbox

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	projectIDPattern    = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)
	invalidLabelPattern = regexp.MustCompile(`[^a-z0-9_-]`)
)

const maxLabelLength = 63

// UserPrefix is the lowercased local part of the email with dots replaced by dashes.
func UserPrefix(email string) string {
	local := email
	if at := strings.LastIndex(email, "@"); at >= 0 {
		local = email[:at]
	}

	return strings.ReplaceAll(strings.ToLower(local), ".", "-")
}

// GenerateProjectID returns <user prefix>-<unix seconds>.
func GenerateProjectID(email string, at time.Time) string {
	return fmt.Sprintf("%s-%d", UserPrefix(email), at.Unix())
}

func ValidProjectID(projectID string) bool {
	return projectIDPattern.MatchString(projectID)
}

func labelValue(value string) string {
	value = invalidLabelPattern.ReplaceAllString(strings.ToLower(value), "_")
	if len(value) > maxLabelLength {
		value = value[:maxLabelLength]
	}

	return value
}
