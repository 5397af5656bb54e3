package sandbox

import (
	"context"
	"fmt"
	"strings"
)

type QuotaChecker struct {
	projects ProjectLifecycle
	max      int
}

func NewQuotaChecker(projects ProjectLifecycle, maxPerUser int) *QuotaChecker {
	return &QuotaChecker{projects: projects, max: maxPerUser}
}

// Active counts the active projects in the folder whose id contains the user prefix.
func (q *QuotaChecker) Active(ctx context.Context, userEmail, folderID string) (int, error) {
	ids, err := q.projects.ListProjectIDs(ctx, folderID)
	if err != nil {
		return 0, fmt.Errorf("listing projects in %s: %w", folderID, err)
	}

	prefix := UserPrefix(userEmail)
	count := 0
	for _, id := range ids {
		if strings.Contains(id, prefix) {
			count++
		}
	}

	return count, nil
}

func (q *QuotaChecker) Check(ctx context.Context, userEmail, folderID string) error {
	active, err := q.Active(ctx, userEmail, folderID)
	if err != nil {
		return err
	}

	if active >= q.max {
		return &QuotaExceededError{UserEmail: userEmail, Max: q.max, Active: active}
	}

	return nil
}
