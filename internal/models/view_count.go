package models

// ViewCounter names one of the two counters of a view_count row.
type ViewCounter string

const (
	GitHubViews ViewCounter = "github_views"
	DemoViews   ViewCounter = "demo_views"
)

// Column returns the SQL column for the counter. Only whitelisted names are
// ever returned, so it is safe to place into a statement.
func (c ViewCounter) Column() (string, bool) {
	switch c {
	case GitHubViews:
		return string(GitHubViews), true
	case DemoViews:
		return string(DemoViews), true
	default:
		return "", false
	}
}

// ViewCount represents a row of the view_count table
type ViewCount struct {
	ProjectID   string     `json:"project_id" db:"project_id"`
	GitHubViews int64      `json:"github_views" db:"github_views"`
	DemoViews   int64      `json:"demo_views" db:"demo_views"`
	LastUpdated *Timestamp `json:"last_updated,omitempty" db:"last_updated"`
}

// ViewCountSummary is the value stored per project id in the
// get-view-counts response.
type ViewCountSummary struct {
	GitHubViews int64      `json:"github_views"`
	DemoViews   int64      `json:"demo_views"`
	LastUpdated *Timestamp `json:"last_updated,omitempty"`
}

// ViewCountsByProject maps project id to its counters.
type ViewCountsByProject map[string]ViewCountSummary

// SummarizeViewCounts reshapes rows into a mapping keyed by project id.
func SummarizeViewCounts(rows []ViewCount) ViewCountsByProject {
	out := make(ViewCountsByProject, len(rows))
	for _, row := range rows {
		out[row.ProjectID] = ViewCountSummary{
			GitHubViews: row.GitHubViews,
			DemoViews:   row.DemoViews,
			LastUpdated: row.LastUpdated,
		}
	}
	return out
}

// IncrementViewCountRequest is the body accepted by increment-view-count
type IncrementViewCountRequest struct {
	ProjectID    string `json:"projectId" validate:"required"`
	IsGitHubView bool   `json:"isGitHubView" validate:"required_without=IsDemoView"`
	IsDemoView   bool   `json:"isDemoView" validate:"required_without=IsGitHubView"`
}

// Counter picks the counter to bump. GitHub wins when both flags are set.
func (r IncrementViewCountRequest) Counter() ViewCounter {
	if r.IsGitHubView {
		return GitHubViews
	}
	return DemoViews
}
