package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/dimitrije/sitecms/internal/models"
)

// DefaultTimeout is the HTTP timeout for contents API calls.
const DefaultTimeout = 30 * time.Second

// Asset is one file of the site repository at a given version.
type Asset struct {
	Path    string
	Body    string
	Version string
}

type Repository struct {
	Owner  string
	Name   string
	Branch string
}

// GitHubClient reads and writes single files through the GitHub contents
// API. The version token is the blob SHA the API reports for the file.
type GitHubClient struct {
	gh          *gh.Client
	repo        Repository
	rateLimiter *RateLimiter
}

type Option func(*GitHubClient) error

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(raw string) Option {
	return func(c *GitHubClient) error {
		if raw == "" {
			return nil
		}
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid api url: %w", err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

func WithRateLimiter(r *RateLimiter) Option {
	return func(c *GitHubClient) error {
		c.rateLimiter = r
		return nil
	}
}

// NewGitHubClient authenticates every request with a static access token.
func NewGitHubClient(ctx context.Context, token string, repo Repository, opts ...Option) (*GitHubClient, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return NewGitHubClientWithHTTPClient(tc, repo, opts...)
}

func NewGitHubClientWithHTTPClient(httpClient *http.Client, repo Repository, opts ...Option) (*GitHubClient, error) {
	if repo.Owner == "" || repo.Name == "" {
		return nil, fmt.Errorf("repository owner and name are required")
	}
	if repo.Branch == "" {
		repo.Branch = "main"
	}

	c := &GitHubClient{
		gh:          gh.NewClient(httpClient),
		repo:        repo,
		rateLimiter: NewRateLimiter(ProactiveRate),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *GitHubClient) Repository() Repository {
	return c.repo
}

// Fetch returns the file body at the configured branch together with its
// version token.
func (c *GitHubClient) Fetch(ctx context.Context, path string) (*Asset, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &models.TransportError{Op: "fetch " + path, Err: err}
	}

	opts := &gh.RepositoryContentGetOptions{Ref: c.repo.Branch}
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, c.repo.Owner, c.repo.Name, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "fetch "+path)
	}
	if file == nil {
		if dir != nil {
			return nil, fmt.Errorf("%w: %s is a directory", models.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}

	var body string
	if file.GetEncoding() == "none" {
		// files over 1 MB come back without inline content
		body, err = c.download(ctx, path)
		if err != nil {
			return nil, err
		}
	} else {
		body, err = file.GetContent()
		if err != nil {
			return nil, &models.TransportError{Op: "decode " + path, Err: err}
		}
	}

	return &Asset{
		Path:    path,
		Body:    body,
		Version: file.GetSHA(),
	}, nil
}

func (c *GitHubClient) download(ctx context.Context, path string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", &models.TransportError{Op: "download " + path, Err: err}
	}

	opts := &gh.RepositoryContentGetOptions{Ref: c.repo.Branch}
	rc, resp, err := c.gh.Repositories.DownloadContents(ctx, c.repo.Owner, c.repo.Name, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return "", c.wrapError(err, "download "+path)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", &models.TransportError{Op: "download " + path, Err: err}
	}
	return string(data), nil
}

// Commit replaces the file body in a single commit on the configured branch.
// The remote rejects the write when expectedVersion is no longer current.
// It returns the new version token.
func (c *GitHubClient) Commit(ctx context.Context, path, body, expectedVersion, message string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", &models.TransportError{Op: "commit " + path, Err: err}
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: []byte(body),
		SHA:     gh.Ptr(expectedVersion),
		Branch:  gh.Ptr(c.repo.Branch),
	}
	res, resp, err := c.gh.Repositories.UpdateFile(ctx, c.repo.Owner, c.repo.Name, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return "", c.wrapError(err, "commit "+path)
	}
	if res == nil || res.Content == nil {
		return "", &models.TransportError{Op: "commit " + path, Err: errors.New("response has no content")}
	}
	return res.Content.GetSHA(), nil
}

func (c *GitHubClient) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError maps go-github errors onto the collection error taxonomy.
func (c *GitHubClient) wrapError(err error, op string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &models.TransportError{Op: op, StatusCode: http.StatusForbidden, Err: err}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &models.TransportError{Op: op, StatusCode: http.StatusForbidden, Err: err}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status := ghErr.Response.StatusCode
		switch {
		case status == http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", models.ErrNotFound, op, ghErr.Message)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return fmt.Errorf("%w: %s: %s", models.ErrAuthFailure, op, ghErr.Message)
		case status == http.StatusConflict:
			return fmt.Errorf("%w: %s: %s", models.ErrVersionConflict, op, ghErr.Message)
		case status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(ghErr.Message), "sha"):
			return fmt.Errorf("%w: %s: %s", models.ErrVersionConflict, op, ghErr.Message)
		}
		return &models.TransportError{Op: op, StatusCode: status, Err: err}
	}

	return &models.TransportError{Op: op, Err: err}
}
