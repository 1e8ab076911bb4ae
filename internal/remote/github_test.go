package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentsAPI emulates the subset of the GitHub contents API the client uses.
type contentsAPI struct {
	mu       sync.Mutex
	files    map[string]string
	large    map[string]bool
	status   int
	messages []string
	branches []string
	server   *httptest.Server
}

func newContentsAPI(t *testing.T) *contentsAPI {
	t.Helper()
	api := &contentsAPI{files: make(map[string]string), large: make(map[string]bool)}
	api.server = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.server.Close)
	return api
}

func (a *contentsAPI) handle(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if a.status != 0 {
		w.WriteHeader(a.status)
		_, _ = w.Write([]byte(`{"message":"forced failure"}`))
		return
	}

	if strings.HasPrefix(r.URL.Path, "/raw/") {
		body, ok := a.files[strings.TrimPrefix(r.URL.Path, "/raw/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
		return
	}

	const prefix = "/repos/acme/site/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("ref") != "main" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"No commit found for the ref"}`))
			return
		}
		if body, ok := a.files[path]; ok {
			resp := map[string]any{"type": "file", "path": path, "name": path[strings.LastIndex(path, "/")+1:], "sha": BlobSHA(body)}
			if a.large[path] {
				resp["encoding"] = "none"
				resp["content"] = ""
			} else {
				resp["encoding"] = "base64"
				resp["content"] = chunked(base64.StdEncoding.EncodeToString([]byte(body)))
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		var entries []map[string]any
		for p, body := range a.files {
			if strings.HasPrefix(p, path+"/") && !strings.Contains(strings.TrimPrefix(p, path+"/"), "/") {
				entries = append(entries, map[string]any{
					"type":         "file",
					"path":         p,
					"name":         strings.TrimPrefix(p, path+"/"),
					"sha":          BlobSHA(body),
					"download_url": a.server.URL + "/raw/" + p,
				})
			}
		}
		if entries == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(entries)

	case http.MethodPut:
		var req struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
			Branch  string `json:"branch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		current, ok := a.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		if BlobSHA(current) != req.SHA {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"` + path + ` is at ` + BlobSHA(current) + ` but expected ` + req.SHA + `"}`))
			return
		}
		body, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		a.files[path] = string(body)
		a.messages = append(a.messages, req.Message)
		a.branches = append(a.branches, req.Branch)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]any{"path": path, "sha": BlobSHA(string(body))},
			"commit":  map[string]any{"sha": "c0ffee"},
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// chunked wraps base64 at 60 columns like the real API does.
func chunked(s string) string {
	var sb strings.Builder
	for len(s) > 60 {
		sb.WriteString(s[:60])
		sb.WriteByte('\n')
		s = s[60:]
	}
	sb.WriteString(s)
	return sb.String()
}

func newTestClient(t *testing.T, api *contentsAPI) *GitHubClient {
	t.Helper()
	c, err := NewGitHubClientWithHTTPClient(
		api.server.Client(),
		Repository{Owner: "acme", Name: "site"},
		WithBaseURL(api.server.URL),
		WithRateLimiter(NewRateLimiter(0)),
	)
	require.NoError(t, err)
	return c
}

func TestGitHubClient_Fetch(t *testing.T) {
	api := newContentsAPI(t)
	body := "export const eventsData = [\n  { id: 1, title: \"Évènement\" },\n];\n" + strings.Repeat("// padding\n", 20)
	api.files["src/data/eventsData.ts"] = body
	client := newTestClient(t, api)

	asset, err := client.Fetch(context.Background(), "src/data/eventsData.ts")

	require.NoError(t, err)
	assert.Equal(t, body, asset.Body)
	assert.Equal(t, BlobSHA(body), asset.Version)
	assert.Equal(t, "src/data/eventsData.ts", asset.Path)
}

func TestGitHubClient_Fetch_NotFound(t *testing.T) {
	api := newContentsAPI(t)
	client := newTestClient(t, api)

	_, err := client.Fetch(context.Background(), "src/data/missing.ts")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGitHubClient_Fetch_LargeFileDownload(t *testing.T) {
	api := newContentsAPI(t)
	body := "export const newsData = [];\n"
	api.files["src/data/newsData.ts"] = body
	api.large["src/data/newsData.ts"] = true
	client := newTestClient(t, api)

	asset, err := client.Fetch(context.Background(), "src/data/newsData.ts")

	require.NoError(t, err)
	assert.Equal(t, body, asset.Body)
	assert.Equal(t, BlobSHA(body), asset.Version)
}

func TestGitHubClient_Fetch_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{http.StatusUnauthorized, models.ErrAuthFailure},
		{http.StatusForbidden, models.ErrAuthFailure},
		{http.StatusInternalServerError, models.ErrTransport},
		{http.StatusBadGateway, models.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := newContentsAPI(t)
			api.status = tt.status
			client := newTestClient(t, api)

			_, err := client.Fetch(context.Background(), "src/data/eventsData.ts")

			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestGitHubClient_Fetch_TransportStatus(t *testing.T) {
	api := newContentsAPI(t)
	api.status = http.StatusServiceUnavailable
	client := newTestClient(t, api)

	_, err := client.Fetch(context.Background(), "src/data/eventsData.ts")

	var te *models.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
}

func TestGitHubClient_Commit(t *testing.T) {
	api := newContentsAPI(t)
	api.files["src/data/eventsData.ts"] = "old"
	client := newTestClient(t, api)

	version, err := client.Commit(context.Background(), "src/data/eventsData.ts", "new body", BlobSHA("old"), "Update eventsData.ts from admin")

	require.NoError(t, err)
	assert.Equal(t, BlobSHA("new body"), version)
	assert.Equal(t, "new body", api.files["src/data/eventsData.ts"])
	assert.Equal(t, []string{"Update eventsData.ts from admin"}, api.messages)
	assert.Equal(t, []string{"main"}, api.branches)
}

func TestGitHubClient_Commit_StaleVersion(t *testing.T) {
	api := newContentsAPI(t)
	api.files["src/data/eventsData.ts"] = "changed elsewhere"
	client := newTestClient(t, api)

	_, err := client.Commit(context.Background(), "src/data/eventsData.ts", "new body", BlobSHA("old"), "msg")

	assert.ErrorIs(t, err, models.ErrVersionConflict)
	assert.Equal(t, "changed elsewhere", api.files["src/data/eventsData.ts"])
}

func TestGitHubClient_FetchCommitFetch(t *testing.T) {
	api := newContentsAPI(t)
	api.files["src/data/newsData.ts"] = "v1"
	client := newTestClient(t, api)
	ctx := context.Background()

	first, err := client.Fetch(ctx, "src/data/newsData.ts")
	require.NoError(t, err)

	version, err := client.Commit(ctx, "src/data/newsData.ts", "v2", first.Version, "msg")
	require.NoError(t, err)

	second, err := client.Fetch(ctx, "src/data/newsData.ts")
	require.NoError(t, err)
	assert.Equal(t, "v2", second.Body)
	assert.Equal(t, version, second.Version)
	assert.NotEqual(t, first.Version, second.Version)
}

func TestNewGitHubClient_RequiresRepository(t *testing.T) {
	_, err := NewGitHubClientWithHTTPClient(http.DefaultClient, Repository{Owner: "acme"})
	assert.Error(t, err)

	c, err := NewGitHubClientWithHTTPClient(http.DefaultClient, Repository{Owner: "acme", Name: "site"})
	require.NoError(t, err)
	assert.Equal(t, "main", c.Repository().Branch)
}

func TestRateLimiter_UpdateFromResponse(t *testing.T) {
	rl := NewRateLimiter(ProactiveRate)
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(HeaderRateRemaining, "42")
	resp.Header.Set(HeaderRateLimit, "5000")
	resp.Header.Set(HeaderRateReset, "1700000000")

	rl.UpdateFromResponse(resp)

	assert.Equal(t, 42, rl.Remaining())
	assert.Equal(t, int64(1700000000), rl.ResetTime().Unix())
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(0.001)
	ctx := context.Background()
	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, rl.Wait(cancelled))
}
