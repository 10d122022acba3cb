package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ghAdapter "github.com/revtriage/revtriage/internal/adapter/driven/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) (*ghAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)

	return client, server
}

// reviewJSON is a helper struct for building GitHub API review responses.
type reviewJSON struct {
	ID          int64    `json:"id"`
	State       string   `json:"state"`
	Body        string   `json:"body"`
	SubmittedAt string   `json:"submitted_at"`
	User        userJSON `json:"user"`
}

// commentJSON is a helper struct for building GitHub API issue comment responses.
type commentJSON struct {
	ID        int64    `json:"id"`
	Body      string   `json:"body"`
	CreatedAt string   `json:"created_at"`
	User      userJSON `json:"user"`
}

type userJSON struct {
	Login string `json:"login"`
}

// reviewCommentHandler serves the two endpoints FetchReviewBodies hits:
// /pulls/{n}/reviews and /issues/{n}/comments.
func reviewCommentHandler(reviews []reviewJSON, comments []commentJSON) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/pulls/"):
			json.NewEncoder(w).Encode(reviews)
		case strings.Contains(r.URL.Path, "/issues/"):
			json.NewEncoder(w).Encode(comments)
		default:
			http.NotFound(w, r)
		}
	})
}

func TestFetchReviewBodies_FiltersAndOrders(t *testing.T) {
	reviews := []reviewJSON{
		{
			ID:          1002,
			State:       "COMMENTED",
			Body:        "second bot review",
			SubmittedAt: "2026-01-12T10:00:00Z",
			User:        userJSON{Login: "coderabbitai[bot]"},
		},
		{
			ID:          1001,
			State:       "COMMENTED",
			Body:        "first bot review",
			SubmittedAt: "2026-01-10T10:00:00Z",
			User:        userJSON{Login: "coderabbitai[bot]"},
		},
		{
			ID:          1003,
			State:       "APPROVED",
			Body:        "human approval",
			SubmittedAt: "2026-01-11T10:00:00Z",
			User:        userJSON{Login: "alice"},
		},
	}
	comments := []commentJSON{
		{
			ID:        3001,
			Body:      "bot summary comment",
			CreatedAt: "2026-01-11T09:00:00Z",
			User:      userJSON{Login: "coderabbitai[bot]"},
		},
		{
			ID:        3002,
			Body:      "human chatter",
			CreatedAt: "2026-01-11T09:30:00Z",
			User:      userJSON{Login: "bob"},
		},
	}

	client, _ := newTestClient(t, reviewCommentHandler(reviews, comments))
	bodies, err := client.FetchReviewBodies(context.Background(), "owner/repo", 42, []string{"coderabbitai[bot]"})

	require.NoError(t, err)
	require.Len(t, bodies, 3)
	assert.Equal(t, "first bot review", bodies[0])
	assert.Equal(t, "bot summary comment", bodies[1])
	assert.Equal(t, "second bot review", bodies[2])
}

func TestFetchReviewBodies_CaseInsensitiveUsername(t *testing.T) {
	reviews := []reviewJSON{
		{
			ID:          1001,
			Body:        "mixed case author",
			SubmittedAt: "2026-01-10T10:00:00Z",
			User:        userJSON{Login: "CodeRabbitAI[bot]"},
		},
	}

	client, _ := newTestClient(t, reviewCommentHandler(reviews, nil))
	bodies, err := client.FetchReviewBodies(context.Background(), "owner/repo", 42, []string{"coderabbitai[bot]"})

	require.NoError(t, err)
	require.Len(t, bodies, 1)
	assert.Equal(t, "mixed case author", bodies[0])
}

func TestFetchReviewBodies_SkipsEmptyBodies(t *testing.T) {
	reviews := []reviewJSON{
		{
			ID:          1001,
			State:       "APPROVED",
			Body:        "",
			SubmittedAt: "2026-01-10T10:00:00Z",
			User:        userJSON{Login: "coderabbitai[bot]"},
		},
		{
			ID:          1002,
			Body:        "real content",
			SubmittedAt: "2026-01-11T10:00:00Z",
			User:        userJSON{Login: "coderabbitai[bot]"},
		},
	}

	client, _ := newTestClient(t, reviewCommentHandler(reviews, nil))
	bodies, err := client.FetchReviewBodies(context.Background(), "owner/repo", 42, []string{"coderabbitai[bot]"})

	require.NoError(t, err)
	require.Len(t, bodies, 1)
	assert.Equal(t, "real content", bodies[0])
}

func TestFetchReviewBodies_MultipleBots(t *testing.T) {
	reviews := []reviewJSON{
		{
			ID:          1001,
			Body:        "rabbit says hi",
			SubmittedAt: "2026-01-10T10:00:00Z",
			User:        userJSON{Login: "coderabbitai[bot]"},
		},
		{
			ID:          1002,
			Body:        "dog says woof",
			SubmittedAt: "2026-01-11T10:00:00Z",
			User:        userJSON{Login: "reviewdog[bot]"},
		},
	}

	client, _ := newTestClient(t, reviewCommentHandler(reviews, nil))
	bodies, err := client.FetchReviewBodies(context.Background(), "owner/repo", 42,
		[]string{"coderabbitai[bot]", "reviewdog[bot]"})

	require.NoError(t, err)
	require.Len(t, bodies, 2)
	assert.Equal(t, "rabbit says hi", bodies[0])
	assert.Equal(t, "dog says woof", bodies[1])
}

func TestFetchReviewBodies_NoBotActivity(t *testing.T) {
	reviews := []reviewJSON{
		{
			ID:          1001,
			Body:        "human review",
			SubmittedAt: "2026-01-10T10:00:00Z",
			User:        userJSON{Login: "alice"},
		},
	}

	client, _ := newTestClient(t, reviewCommentHandler(reviews, nil))
	bodies, err := client.FetchReviewBodies(context.Background(), "owner/repo", 42, []string{"coderabbitai[bot]"})

	require.NoError(t, err)
	assert.Empty(t, bodies)
}

func TestFetchReviewBodies_Pagination(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if strings.Contains(r.URL.Path, "/issues/") {
			json.NewEncoder(w).Encode([]commentJSON{})
			return
		}

		page := r.URL.Query().Get("page")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, "http://"+r.Host+r.URL.Path))
			json.NewEncoder(w).Encode([]reviewJSON{
				{
					ID:          1,
					Body:        "page one review",
					SubmittedAt: "2026-01-01T00:00:00Z",
					User:        userJSON{Login: "coderabbitai[bot]"},
				},
			})
		} else {
			json.NewEncoder(w).Encode([]reviewJSON{
				{
					ID:          2,
					Body:        "page two review",
					SubmittedAt: "2026-01-02T00:00:00Z",
					User:        userJSON{Login: "coderabbitai[bot]"},
				},
			})
		}
	})

	client, _ := newTestClient(t, handler)
	bodies, err := client.FetchReviewBodies(context.Background(), "owner/repo", 42, []string{"coderabbitai[bot]"})

	require.NoError(t, err)
	require.Len(t, bodies, 2)
	assert.Equal(t, "page one review", bodies[0])
	assert.Equal(t, "page two review", bodies[1])
}

func TestFetchReviewBodies_InvalidRepoName(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called for invalid repo name")
	})

	client, _ := newTestClient(t, handler)

	tests := []struct {
		name string
		repo string
	}{
		{name: "no slash", repo: "invalid"},
		{name: "empty owner", repo: "/repo"},
		{name: "empty repo", repo: "owner/"},
		{name: "empty string", repo: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.FetchReviewBodies(context.Background(), tc.repo, 42, []string{"coderabbitai[bot]"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid repo name")
		})
	}
}

func TestFetchReviewBodies_APIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"message": "boom"})
	})

	client, _ := newTestClient(t, handler)
	_, err := client.FetchReviewBodies(context.Background(), "owner/repo", 42, []string{"coderabbitai[bot]"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing reviews for owner/repo#42")
}
