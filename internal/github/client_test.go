package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/octocat", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"login": "octocat",
			"id": 583231,
			"node_id": "MDQ6VXNlcjU4MzIzMQ==",
			"html_url": "https://github.com/octocat",
			"name": "The Octocat",
			"company": "",
			"blog": null,
			"location": "San Francisco",
			"bio": null,
			"followers": 9999,
			"created_at": "2011-01-25T18:44:36Z"
		}`)
	})
	mux.HandleFunc("GET /users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "15", r.URL.Query().Get("per_page"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		langURL := "http://" + r.Host + "/repos/octocat/hello-world/languages"
		fmt.Fprintf(w, `[{
			"name": "hello-world",
			"full_name": "octocat/hello-world",
			"html_url": "https://github.com/octocat/hello-world",
			"description": "My first repo",
			"languages_url": %q,
			"language": "Go",
			"stargazers_count": 42,
			"topics": []
		}]`, langURL)
	})
	mux.HandleFunc("GET /repos/octocat/hello-world/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Go": 12345, "Makefile": 120}`)
	})
	mux.HandleFunc("GET /repos/octocat/hello-world/readme", func(w http.ResponseWriter, r *http.Request) {
		// Content is newline-wrapped the way the live API returns it.
		encoded := base64.StdEncoding.EncodeToString([]byte("# Hello World\n\nA demo."))
		fmt.Fprintf(w, `{"encoding": "base64", "content": "%s\n%s\n"}`, encoded[:10], encoded[10:])
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCollectProfile(t *testing.T) {
	server := newFakeAPI(t)

	client := NewClientWithBaseURL("", server.URL)
	profile, err := client.CollectProfile(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, "octocat", profile["login"])
	assert.Equal(t, "The Octocat", profile["name"])
	assert.Equal(t, "San Francisco", profile["location"])

	// Fields outside the allow-list and empty values are gone.
	assert.NotContains(t, profile, "id")
	assert.NotContains(t, profile, "followers")
	assert.NotContains(t, profile, "company")
	assert.NotContains(t, profile, "bio")

	repos, ok := profile["repos"].([]any)
	require.True(t, ok)
	require.Len(t, repos, 1)
	repo := repos[0].(map[string]any)

	assert.Equal(t, "hello-world", repo["name"])
	assert.NotContains(t, repo, "stargazers_count")
	assert.NotContains(t, repo, "topics")

	langs, ok := repo["languages"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(12345), langs["Go"])

	// README text is appended to the description.
	assert.Equal(t, "My first repo\n\n# Hello World\n\nA demo.", repo["description"])
}

func TestCollectProfileUserFetchFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClientWithBaseURL("", server.URL)
	_, err := client.CollectProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestCollectProfileEnrichmentFailureDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/octocat", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login": "octocat", "html_url": "https://github.com/octocat"}`)
	})
	mux.HandleFunc("GET /users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "broken", "full_name": "octocat/broken", "description": "Still here"}]`)
	})
	// No languages or readme routes: both enrichment calls 404.
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClientWithBaseURL("", server.URL)
	profile, err := client.CollectProfile(context.Background(), "octocat")
	require.NoError(t, err)

	repos := profile["repos"].([]any)
	repo := repos[0].(map[string]any)
	assert.Equal(t, "Still here", repo["description"])
	assert.NotContains(t, repo, "languages")
}

func TestStripEmpty(t *testing.T) {
	in := map[string]any{
		"keep":       "value",
		"empty":      "",
		"nil":        nil,
		"emptyList":  []any{},
		"emptyMap":   map[string]any{},
		"nested":     map[string]any{"inner": "", "ok": "yes"},
		"mixedList":  []any{"a", "", nil, "b"},
		"zeroNumber": float64(0),
	}

	out := stripEmpty(in).(map[string]any)
	assert.Equal(t, map[string]any{
		"keep":       "value",
		"nested":     map[string]any{"ok": "yes"},
		"mixedList":  []any{"a", "b"},
		"zeroNumber": float64(0),
	}, out)
}
