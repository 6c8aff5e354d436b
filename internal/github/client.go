package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrFetchFailed covers any failure of the primary profile or repository
// requests. Per-repository enrichment failures degrade silently instead.
var ErrFetchFailed = errors.New("failed to fetch data from GitHub")

const defaultBaseURL = "https://api.github.com"

// reposPerPage bounds how many recently-updated repositories are considered.
const reposPerPage = 15

// Client gathers a user's public profile and repository metadata from the
// GitHub REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake API.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// CollectProfile fetches the user's profile and up to 15 most-recently-updated
// repositories, enriches each repository with its language byte counts and
// README text, and strips empty values from the result.
func (c *Client) CollectProfile(ctx context.Context, username string) (map[string]any, error) {
	user, repos, err := c.fetchUserAndRepos(ctx, username)
	if err != nil {
		return nil, err
	}
	c.addLanguagesAndReadmes(ctx, repos)

	user["repos"] = repos
	stripped, _ := stripEmpty(user).(map[string]any)
	return stripped, nil
}

var userFields = []string{
	"login", "html_url", "repos_url", "name", "company", "blog",
	"location", "email", "bio", "created_at", "updated_at",
}

var repoFields = []string{
	"name", "full_name", "html_url", "description", "languages_url",
	"created_at", "updated_at", "pushed_at", "language", "topics",
}

func (c *Client) fetchUserAndRepos(ctx context.Context, username string) (map[string]any, []map[string]any, error) {
	var rawUser map[string]any
	var rawRepos []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, fmt.Sprintf("%s/users/%s", c.baseURL, username), &rawUser)
	})
	g.Go(func() error {
		url := fmt.Sprintf("%s/users/%s/repos?per_page=%d&sort=updated", c.baseURL, username, reposPerPage)
		return c.getJSON(gctx, url, &rawRepos)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	user := pickFields(rawUser, userFields)
	repos := make([]map[string]any, 0, len(rawRepos))
	for _, raw := range rawRepos {
		repos = append(repos, pickFields(raw, repoFields))
	}
	return user, repos, nil
}

// addLanguagesAndReadmes fetches the language breakdown and README for every
// repository concurrently. Failures leave the corresponding field absent;
// they never fail the pipeline.
func (c *Client) addLanguagesAndReadmes(ctx context.Context, repos []map[string]any) {
	languages := make([]map[string]any, len(repos))
	readmes := make([]string, len(repos))

	var wg errgroup.Group
	for i, repo := range repos {
		langURL, _ := repo["languages_url"].(string)
		fullName, _ := repo["full_name"].(string)

		wg.Go(func() error {
			if langURL == "" {
				return nil
			}
			var langs map[string]any
			if err := c.getJSON(ctx, langURL, &langs); err == nil {
				languages[i] = langs
			}
			return nil
		})
		wg.Go(func() error {
			if fullName == "" {
				return nil
			}
			readmes[i] = c.fetchReadme(ctx, fullName)
			return nil
		})
	}
	_ = wg.Wait()

	for i, repo := range repos {
		if len(languages[i]) > 0 {
			repo["languages"] = languages[i]
		}
		desc, _ := repo["description"].(string)
		switch {
		case desc != "" && readmes[i] != "":
			repo["description"] = desc + "\n\n" + readmes[i]
		case desc == "" && readmes[i] != "":
			repo["description"] = readmes[i]
		}
	}
}

func (c *Client) fetchReadme(ctx context.Context, fullName string) string {
	var payload struct {
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/readme", c.baseURL, fullName), &payload); err != nil {
		return ""
	}
	if payload.Encoding != "base64" {
		return ""
	}
	// The API wraps base64 content with newlines.
	content := strings.ReplaceAll(payload.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func pickFields(raw map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f] = raw[f]
	}
	return out
}

// stripEmpty recursively removes nil values, empty strings, empty lists and
// empty objects from the structure.
func stripEmpty(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if isEmpty(item) {
				continue
			}
			out[k] = stripEmpty(item)
		}
		return out
	case []map[string]any:
		items := make([]any, 0, len(val))
		for _, m := range val {
			items = append(items, m)
		}
		return stripEmpty(items)
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if isEmpty(item) {
				continue
			}
			out = append(out, stripEmpty(item))
		}
		return out
	default:
		return v
	}
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []map[string]any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
