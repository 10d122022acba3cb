// Package github implements the ReviewSource port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/revtriage/revtriage/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewSource = (*Client)(nil)

// Client implements the driven.ReviewSource port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// timedBody pairs a comment body with its timestamp so reviews and PR-level
// comments can be merged into a single chronological sequence.
type timedBody struct {
	body string
	at   time.Time
}

// FetchReviewBodies retrieves the markdown bodies of all reviews and PR-level
// comments authored by any of the given bot usernames, ordered oldest first.
// Username matching is case-insensitive. Empty bodies are skipped.
func (c *Client) FetchReviewBodies(ctx context.Context, repoFullName string, prNumber int, botUsernames []string) ([]string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(botUsernames))
	for _, name := range botUsernames {
		wanted[strings.ToLower(name)] = true
	}

	var timed []timedBody

	reviews, err := c.fetchReviews(ctx, owner, repo, repoFullName, prNumber)
	if err != nil {
		return nil, err
	}
	for _, r := range reviews {
		if !wanted[strings.ToLower(r.GetUser().GetLogin())] {
			continue
		}
		if body := r.GetBody(); body != "" {
			timed = append(timed, timedBody{body: body, at: r.GetSubmittedAt().Time})
		}
	}

	comments, err := c.fetchIssueComments(ctx, owner, repo, repoFullName, prNumber)
	if err != nil {
		return nil, err
	}
	for _, ic := range comments {
		if !wanted[strings.ToLower(ic.GetUser().GetLogin())] {
			continue
		}
		if body := ic.GetBody(); body != "" {
			timed = append(timed, timedBody{body: body, at: ic.GetCreatedAt().Time})
		}
	}

	// Stable sort keeps API order for entries sharing a timestamp.
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].at.Before(timed[j].at)
	})

	bodies := make([]string, 0, len(timed))
	for _, tb := range timed {
		bodies = append(bodies, tb.body)
	}

	return bodies, nil
}

// fetchReviews retrieves all reviews for a pull request, handling pagination.
func (c *Client) fetchReviews(ctx context.Context, owner, repo, repoFullName string, prNumber int) ([]*gh.PullRequestReview, error) {
	opts := &gh.ListOptions{PerPage: 100}
	var all []*gh.PullRequestReview

	for {
		reviews, resp, err := c.gh.PullRequests.ListReviews(ctx, owner, repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing reviews for %s#%d (page %d): %w", repoFullName, prNumber, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/reviews", opts.Page, len(reviews))

		all = append(all, reviews...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// fetchIssueComments retrieves all general PR-level comments (from the Issues
// API) for a pull request, handling pagination.
func (c *Client) fetchIssueComments(ctx context.Context, owner, repo, repoFullName string, prNumber int) ([]*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var all []*gh.IssueComment

	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issue comments for %s#%d (page %d): %w", repoFullName, prNumber, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/comments", opts.Page, len(comments))

		all = append(all, comments...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
