package site

import "time"

// DeployStatus tracks the publish lifecycle of a site.
type DeployStatus string

const (
	DeployIdle        DeployStatus = "idle"
	DeployAuthorizing DeployStatus = "authorizing"
	DeployUploading   DeployStatus = "uploading"
	DeployReady       DeployStatus = "ready"
	DeployError       DeployStatus = "error"
)

// Deployment records the outcome of a publish/export flow against a provider.
type Deployment struct {
	Status         DeployStatus `json:"status"`
	URL            string       `json:"url,omitempty"`
	SiteID         string       `json:"site_id,omitempty"`
	RepoURL        string       `json:"repo_url,omitempty"`
	RepoName       string       `json:"repo_name,omitempty"`
	PullRequestURL string       `json:"pull_request_url,omitempty"`
	Platform       string       `json:"platform,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}
