package sandbox

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
)

type Validator struct {
	domains     []string
	teamFolders map[string]string
	teams       []string
}

func NewValidator(domains []string, teamFolders map[string]string) *Validator {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}

	teams := make([]string, 0, len(teamFolders))
	for team := range teamFolders {
		teams = append(teams, team)
	}
	slices.Sort(teams)

	return &Validator{
		domains:     normalized,
		teamFolders: teamFolders,
		teams:       teams,
	}
}

// Validate checks the request against the authorized domains and teams and
// returns the folder of the requested team.
func (v *Validator) Validate(req Request) (string, error) {
	if err := v.checkEmail("user_email", req.UserEmail); err != nil {
		return "", err
	}

	for i, user := range req.AdditionalUsers {
		if err := v.checkEmail(fmt.Sprintf("additional_users[%d]", i), user); err != nil {
			return "", err
		}
	}

	folderID, ok := v.teamFolders[req.TeamName]
	if !ok {
		return "", &ValidationError{
			Field:   "team_name",
			Message: fmt.Sprintf("Team name %s is invalid. Required value must be one in [%s].", req.TeamName, strings.Join(v.teams, ", ")),
		}
	}

	if req.RequestedDurationHours < 1 || req.RequestedDurationHours > MaxDurationHours {
		return "", &ValidationError{
			Field:   "requested_duration_hours",
			Message: fmt.Sprintf("requested_duration_hours must be between 1 and %d, got %d.", MaxDurationHours, req.RequestedDurationHours),
		}
	}

	return folderID, nil
}

func (v *Validator) checkEmail(field, email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s is not a valid email address.", email),
		}
	}

	domain := strings.ToLower(addr.Address[strings.LastIndex(addr.Address, "@")+1:])
	if !slices.Contains(v.domains, domain) {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("User %s doesn't belong to authorized domains [%s].", email, strings.Join(v.domains, ", ")),
		}
	}

	return nil
}
