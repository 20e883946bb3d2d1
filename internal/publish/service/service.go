// Package service implements the governance publish flow: load an authored
// artifact, create a branch on GitHub, commit the document and open a pull
// request.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"badgeforge/internal/publish/metrics"
	"badgeforge/internal/publish/models"
	"badgeforge/internal/sentinel"
	dErrors "badgeforge/pkg/domain-errors"
	platformstrings "badgeforge/pkg/platform/strings"
	"badgeforge/pkg/requestcontext"
)

// GitHub is the client interface the service depends on.
type GitHub interface {
	RepoInfo(ctx context.Context, owner, name string) (*models.RepoInfo, error)
	BranchHead(ctx context.Context, owner, name, branch string) (string, error)
	CreateBranch(ctx context.Context, owner, name, branch, sha string) error
	CommitFile(ctx context.Context, owner, name, branch, path, message string, content []byte) (string, error)
	OpenPullRequest(ctx context.Context, owner, name, head, base, title, body string) (*models.PullRequest, error)
	ListPullRequests(ctx context.Context, owner, name, state string) ([]models.PullRequest, error)
}

// ArtifactSource loads authored documents from the local registries.
// Implementations return domain errors, so lookup failures pass through
// to the caller untranslated.
type ArtifactSource interface {
	Artifact(ctx context.Context, kind models.Kind, artifactID string) (*models.Artifact, error)
}

type Service struct {
	github          GitHub
	artifacts       ArtifactSource
	tokenConfigured bool
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(github GitHub, artifacts ArtifactSource, tokenConfigured bool, opts ...Option) (*Service, error) {
	if github == nil {
		return nil, fmt.Errorf("github client is required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact source is required")
	}
	s := &Service{
		github:          github,
		artifacts:       artifacts,
		tokenConfigured: tokenConfigured,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Publish loads the artifact, creates a governance branch from the base head,
// commits the marshaled document and opens a pull request.
//
// There is no retry or rollback. When a step fails after the branch was
// created, the branch stays behind on GitHub and the returned error names it
// so the operator can clean up or reuse it.
func (s *Service) Publish(ctx context.Context, req models.PublishRequest) (*models.PublishResult, error) {
	if !s.tokenConfigured {
		return nil, dErrors.New(dErrors.CodeUnavailable, "github token is not configured")
	}
	if !req.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "kind must be badge, vct or zone-template")
	}
	owner, name, err := models.SplitRepo(req.Repo)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}

	artifact, err := s.artifacts.Artifact(ctx, req.Kind, req.ID)
	if err != nil {
		return nil, err
	}

	content, err := json.MarshalIndent(artifact.Document, "", "  ")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode artifact")
	}
	content = append(content, '\n')

	base := req.BaseBranch
	if base == "" {
		info, err := s.github.RepoInfo(ctx, owner, name)
		if err != nil {
			s.countFailure()
			return nil, translate(err, "resolve repository")
		}
		base = info.DefaultBranch
	}

	sha, err := s.github.BranchHead(ctx, owner, name, base)
	if err != nil {
		s.countFailure()
		return nil, translate(err, "resolve base branch")
	}

	slug := platformstrings.Slugify(artifact.ID)
	branch := fmt.Sprintf("%s%s-%s-%d", models.BranchPrefix, req.Kind, slug, requestcontext.Now(ctx).Unix())

	if err := s.github.CreateBranch(ctx, owner, name, branch, sha); err != nil {
		s.countFailure()
		return nil, translate(err, "create branch")
	}

	path := req.Path
	if path == "" {
		path = fmt.Sprintf("governance/%ss/%s.json", req.Kind, slug)
	}
	message := fmt.Sprintf("Publish %s %s", req.Kind, artifact.ID)

	commitSHA, err := s.github.CommitFile(ctx, owner, name, branch, path, message, content)
	if err != nil {
		s.countFailure()
		return nil, orphaned(translate(err, "commit artifact"), branch, req.Repo)
	}

	title := req.Title
	if title == "" {
		title = message
	}
	body := req.Body
	if body == "" {
		body = fmt.Sprintf("Updates the %s definition `%s`.\n\nOpened from the badgeforge governance editor.", req.Kind, artifact.ID)
	}

	pr, err := s.github.OpenPullRequest(ctx, owner, name, branch, base, title, body)
	if err != nil {
		s.countFailure()
		return nil, orphaned(translate(err, "open pull request"), branch, req.Repo)
	}

	s.logger.InfoContext(ctx, "artifact published to github",
		"kind", req.Kind,
		"artifact_id", artifact.ID,
		"repo", req.Repo,
		"branch", branch,
		"pr_number", pr.Number,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.countPublish(string(req.Kind))

	return &models.PublishResult{
		Branch:    branch,
		CommitSHA: commitSHA,
		PRNumber:  pr.Number,
		PRURL:     pr.URL,
	}, nil
}

// Pulls lists the open governance proposals on the repository: pull requests
// whose head branch carries the governance prefix.
func (s *Service) Pulls(ctx context.Context, repo, state string) ([]models.PullRequest, error) {
	owner, name, err := models.SplitRepo(repo)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if state == "" {
		state = "open"
	}
	switch state {
	case "open", "closed", "all":
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "state must be open, closed or all")
	}

	prs, err := s.github.ListPullRequests(ctx, owner, name, state)
	if err != nil {
		return nil, translate(err, "list pull requests")
	}

	governance := make([]models.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if strings.HasPrefix(pr.Branch, models.BranchPrefix) {
			governance = append(governance, pr)
		}
	}

	return governance, nil
}

// Status reports whether publishing can work: is a token configured, and is
// the target repository reachable. An unreachable repository is a finding,
// not a failure, so the probe error is logged and folded into the report.
func (s *Service) Status(ctx context.Context, repo string) (*models.RepoStatus, error) {
	status := &models.RepoStatus{TokenConfigured: s.tokenConfigured}
	if repo == "" {
		return status, nil
	}

	owner, name, err := models.SplitRepo(repo)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	status.Repo = repo

	info, err := s.github.RepoInfo(ctx, owner, name)
	if err != nil {
		s.logger.WarnContext(ctx, "repository probe failed",
			"repo", repo,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		reachable := false
		status.Reachable = &reachable
		return status, nil
	}

	reachable := true
	status.Reachable = &reachable
	status.DefaultBranch = info.DefaultBranch
	return status, nil
}

// translate maps client failures to domain errors. Not-found and conflict
// sentinels keep their meaning; anything else is an upstream failure, with
// timeouts called out separately.
func translate(err error, op string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "github: "+op+" timed out")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, err.Error())
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
	default:
		return dErrors.Wrap(err, dErrors.CodeUpstream, "github: "+op+": "+err.Error())
	}
}

// orphaned appends the left-behind branch to a publish error. The flow has no
// rollback, so the operator needs the branch name to clean up by hand.
func orphaned(err error, branch, repo string) error {
	return dErrors.Wrap(err, dErrors.CodeUpstream,
		fmt.Sprintf("%s; branch %s was created on %s and is left behind", err.Error(), branch, repo))
}

func (s *Service) countPublish(kind string) {
	if s.metrics != nil {
		s.metrics.IncrementPublishes(kind)
	}
}

func (s *Service) countFailure() {
	if s.metrics != nil {
		s.metrics.IncrementPublishFailures()
	}
}
