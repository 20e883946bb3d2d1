// Package models defines the domain types for the GitHub publish flow.
package models

import (
	"fmt"
	"strings"
	"time"
)

// BranchPrefix marks branches created by the governance publish flow.
// Pull request listings are filtered on it so the editor only sees its own proposals.
const BranchPrefix = "governance/"

// Kind identifies which artifact registry a publish request draws from.
type Kind string

const (
	KindBadge        Kind = "badge"
	KindVCT          Kind = "vct"
	KindZoneTemplate Kind = "zone-template"
)

// IsValid reports whether the kind names a publishable artifact registry.
func (k Kind) IsValid() bool {
	switch k {
	case KindBadge, KindVCT, KindZoneTemplate:
		return true
	}
	return false
}

// PublishRequest describes one artifact to propose on GitHub.
// BaseBranch, Path, Title and Body are optional; the service fills defaults.
type PublishRequest struct {
	Kind       Kind   `json:"kind"`
	ID         string `json:"id"`
	Repo       string `json:"repo"`
	BaseBranch string `json:"baseBranch,omitempty"`
	Path       string `json:"path,omitempty"`
	Title      string `json:"title,omitempty"`
	Body       string `json:"body,omitempty"`
}

// Artifact is an authored document loaded from one of the local registries,
// ready to be marshaled into the committed file.
type Artifact struct {
	Kind     Kind
	ID       string
	Document any
}

// PublishResult reports what the publish flow created on GitHub.
// The field names follow GitHub's own API vocabulary.
type PublishResult struct {
	Branch    string `json:"branch"`
	CommitSHA string `json:"commit_sha"`
	PRNumber  int    `json:"pr_number"`
	PRURL     string `json:"pr_url"`
}

// PullRequest is the editor's view of a governance proposal on GitHub.
type PullRequest struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	State      string    `json:"state"`
	Draft      bool      `json:"draft"`
	Branch     string    `json:"branch"`
	BaseBranch string    `json:"base_branch"`
	Author     string    `json:"author"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RepoInfo carries the repository metadata the publish flow needs.
type RepoInfo struct {
	FullName      string
	DefaultBranch string
	Private       bool
}

// RepoStatus answers the editor's "can I publish?" question.
// Reachable is nil when no repository was checked.
type RepoStatus struct {
	TokenConfigured bool   `json:"token_configured"`
	Repo            string `json:"repo,omitempty"`
	Reachable       *bool  `json:"reachable,omitempty"`
	DefaultBranch   string `json:"default_branch,omitempty"`
}

// SplitRepo splits an "owner/name" string into its two components.
func SplitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/name", fullName)
	}
	return parts[0], parts[1], nil
}
