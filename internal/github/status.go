package github

// statusContext is the fixed context label attached to every commit status
// the service sets, so branch protection rules can require it by name.
const statusContext = "PR-Comprehension-Check"

// repoConfigPath is where optional per-repo overrides live.
const repoConfigPath = ".merge-warden.yml"

// Commit status states accepted by the statuses API.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// maxDescriptionLen is the statuses API limit for the description field.
const maxDescriptionLen = 140

// truncateDescription caps a status description at the API limit.
func truncateDescription(s string) string {
	if len(s) <= maxDescriptionLen {
		return s
	}
	return s[:maxDescriptionLen]
}
