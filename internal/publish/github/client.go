// Package github drives the governance publish flow against the GitHub REST
// API using the go-github library.
//
// Error Contract:
//   - 404 responses come back wrapped around sentinel.ErrNotFound.
//   - 422 "already exists" on branch creation wraps sentinel.ErrAlreadyUsed.
//   - Everything else is returned as a plain wrapped error for the service
//     layer to classify as an upstream failure.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	gh "github.com/google/go-github/v68/github"
	"github.com/gregjones/httpcache"

	"badgeforge/internal/publish/models"
	"badgeforge/internal/sentinel"
	"badgeforge/pkg/platform/tracing"
)

// Span names, one per REST call.
const (
	spanRepoInfo     = "github.repo_info"
	spanBranchHead   = "github.branch_head"
	spanCreateBranch = "github.create_branch"
	spanCommitFile   = "github.commit_file"
	spanOpenPull     = "github.open_pull_request"
	spanListPulls    = "github.list_pull_requests"
)

// Client wraps the go-github client with the operations the publish flow needs.
type Client struct {
	gh     *gh.Client
	logger *slog.Logger
	tracer tracing.Tracer
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTracer(t tracing.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithAuthToken authenticates API calls with a personal access token. Only
// needed with NewClientWithBaseURL; NewClient applies its token directly.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.gh = c.gh.WithAuthToken(token) }
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string, opts ...Option) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	// NewRateLimitWaiterClient only returns an error for invalid options; with
	// none passed it is always nil.
	rateLimitClient, _ := github_ratelimit.NewRateLimitWaiterClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	c := &Client{
		gh:     client,
		logger: slog.Default(),
		tracer: tracing.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientWithBaseURL creates a Client talking to a non-default API endpoint.
// Used for httptest servers in tests and for GitHub Enterprise installations.
func NewClientWithBaseURL(httpClient *http.Client, baseURL string, opts ...Option) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	client.BaseURL = u

	c := &Client{
		gh:     client,
		logger: slog.Default(),
		tracer: tracing.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RepoInfo fetches the repository metadata, most importantly its default branch.
func (c *Client) RepoInfo(ctx context.Context, owner, name string) (*models.RepoInfo, error) {
	ctx, span := c.tracer.Start(ctx, spanRepoInfo, tracing.String("repo", owner+"/"+name))

	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	span.End(err)
	if err != nil {
		if isStatus(resp, http.StatusNotFound) {
			return nil, fmt.Errorf("repository %s/%s: %w", owner, name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}

	c.logRateLimit(resp, owner+"/"+name)

	return &models.RepoInfo{
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		Private:       repo.GetPrivate(),
	}, nil
}

// BranchHead returns the commit SHA the given branch currently points at.
func (c *Client) BranchHead(ctx context.Context, owner, name, branch string) (string, error) {
	ctx, span := c.tracer.Start(ctx, spanBranchHead,
		tracing.String("repo", owner+"/"+name),
		tracing.String("branch", branch),
	)

	ref, resp, err := c.gh.Git.GetRef(ctx, owner, name, "refs/heads/"+branch)
	span.End(err)
	if err != nil {
		if isStatus(resp, http.StatusNotFound) {
			return "", fmt.Errorf("branch %s on %s/%s: %w", branch, owner, name, sentinel.ErrNotFound)
		}
		return "", fmt.Errorf("resolving branch %s on %s/%s: %w", branch, owner, name, err)
	}

	c.logRateLimit(resp, owner+"/"+name)

	return ref.GetObject().GetSHA(), nil
}

// CreateBranch creates a new branch pointing at the given commit SHA.
func (c *Client) CreateBranch(ctx context.Context, owner, name, branch, sha string) error {
	ctx, span := c.tracer.Start(ctx, spanCreateBranch,
		tracing.String("repo", owner+"/"+name),
		tracing.String("branch", branch),
	)

	_, resp, err := c.gh.Git.CreateRef(ctx, owner, name, &gh.Reference{
		Ref:    gh.Ptr("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: gh.Ptr(sha)},
	})
	span.End(err)
	if err != nil {
		if isStatus(resp, http.StatusUnprocessableEntity) {
			return fmt.Errorf("branch %s on %s/%s: %w", branch, owner, name, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("creating branch %s on %s/%s: %w", branch, owner, name, err)
	}

	c.logRateLimit(resp, owner+"/"+name)

	return nil
}

// CommitFile writes content to path on the given branch and returns the commit
// SHA. When the path already exists on the branch the existing blob is updated,
// so re-publishing a previously merged artifact produces a clean diff.
func (c *Client) CommitFile(ctx context.Context, owner, name, branch, path, message string, content []byte) (string, error) {
	ctx, span := c.tracer.Start(ctx, spanCommitFile,
		tracing.String("repo", owner+"/"+name),
		tracing.String("branch", branch),
		tracing.String("path", path),
		tracing.Int64("bytes", int64(len(content))),
	)

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: content,
		Branch:  gh.Ptr(branch),
	}

	// The contents API needs the current blob SHA to overwrite an existing file.
	existing, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, name, path,
		&gh.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
	case err != nil && !isStatus(resp, http.StatusNotFound):
		span.End(err)
		return "", fmt.Errorf("checking %s on %s/%s: %w", path, owner, name, err)
	}

	res, resp, err := c.gh.Repositories.CreateFile(ctx, owner, name, path, opts)
	span.End(err)
	if err != nil {
		return "", fmt.Errorf("committing %s to %s/%s@%s: %w", path, owner, name, branch, err)
	}

	c.logRateLimit(resp, owner+"/"+name)

	return res.Commit.GetSHA(), nil
}

// OpenPullRequest opens a pull request from head into base.
func (c *Client) OpenPullRequest(ctx context.Context, owner, name, head, base, title, body string) (*models.PullRequest, error) {
	ctx, span := c.tracer.Start(ctx, spanOpenPull,
		tracing.String("repo", owner+"/"+name),
		tracing.String("head", head),
		tracing.String("base", base),
	)

	pr, resp, err := c.gh.PullRequests.Create(ctx, owner, name, &gh.NewPullRequest{
		Title: gh.Ptr(title),
		Head:  gh.Ptr(head),
		Base:  gh.Ptr(base),
		Body:  gh.Ptr(body),
	})
	span.End(err)
	if err != nil {
		return nil, fmt.Errorf("opening pull request %s -> %s on %s/%s: %w", head, base, owner, name, err)
	}

	c.logRateLimit(resp, owner+"/"+name)

	mapped := mapPullRequest(pr)
	return &mapped, nil
}

// ListPullRequests retrieves pull requests for the repository filtered by state.
// Valid state values are "open", "closed", or "all" (as accepted by the GitHub
// API). It handles pagination automatically.
func (c *Client) ListPullRequests(ctx context.Context, owner, name, state string) ([]models.PullRequest, error) {
	ctx, span := c.tracer.Start(ctx, spanListPulls,
		tracing.String("repo", owner+"/"+name),
		tracing.String("state", state),
	)

	opts := &gh.PullRequestListOptions{
		State:     state,
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var all []models.PullRequest

	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			span.End(err)
			if isStatus(resp, http.StatusNotFound) {
				return nil, fmt.Errorf("repository %s/%s: %w", owner, name, sentinel.ErrNotFound)
			}
			return nil, fmt.Errorf("listing pull requests for %s/%s (page %d): %w", owner, name, opts.Page, err)
		}

		c.logRateLimit(resp, owner+"/"+name)

		for _, pr := range prs {
			all = append(all, mapPullRequest(pr))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	span.End(nil)

	if all == nil {
		all = []models.PullRequest{}
	}

	return all, nil
}

// mapPullRequest converts a go-github PullRequest to the domain summary.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest) models.PullRequest {
	state := pr.GetState()
	if !pr.GetMergedAt().IsZero() {
		state = "merged"
	}

	return models.PullRequest{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		State:      state,
		Draft:      pr.GetDraft(),
		Branch:     pr.GetHead().GetRef(),
		BaseBranch: pr.GetBase().GetRef(),
		Author:     pr.GetUser().GetLogin(),
		URL:        pr.GetHTMLURL(),
		CreatedAt:  pr.GetCreatedAt().Time,
		UpdatedAt:  pr.GetUpdatedAt().Time,
	}
}

// isStatus reports whether the response carries the given HTTP status code.
func isStatus(resp *gh.Response, status int) bool {
	return resp != nil && resp.StatusCode == status
}

// logRateLimit logs the GitHub API rate limit status after each call.
func (c *Client) logRateLimit(resp *gh.Response, repo string) {
	if resp == nil {
		return
	}

	c.logger.Debug("github api call",
		"repo", repo,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
