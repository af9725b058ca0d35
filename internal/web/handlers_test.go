package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hpungsan/locky/internal/config"
	"github.com/hpungsan/locky/internal/db"
	"github.com/hpungsan/locky/internal/vault"
)

func TestMain(m *testing.M) {
	// Run installs a signal handler whose receiver goroutine lives for the process
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("os/signal.signal_recv"))
}

type testEnv struct {
	h       *Handlers
	handler http.Handler
	cfg     *config.Config
	srcDir  string
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.VaultDir = filepath.Join(root, "vault")
	cfg.DBPath = filepath.Join(cfg.VaultDir, config.DefaultDBName)

	database, err := db.Init(cfg.DBPath)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	templateSub, err := fs.Sub(templateFS, "templates")
	require.NoError(t, err)
	staticSub, err := fs.Sub(staticFS, "static")
	require.NoError(t, err)
	renderer, err := NewRenderer(templateSub, "test", nil)
	require.NoError(t, err)

	srcDir := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0700))

	h := &Handlers{
		vault:    vault.New(cfg, database),
		cfg:      cfg,
		renderer: renderer,
		logger:   renderer.logger,
	}
	return &testEnv{h: h, handler: h.routes(staticSub), cfg: cfg, srcDir: srcDir}
}

// seedFile adds a file with the given content to the vault.
func seedFile(t *testing.T, env *testEnv, name, content string) {
	t.Helper()
	src := filepath.Join(env.srcDir, name)
	require.NoError(t, os.WriteFile(src, []byte(content), 0644))
	out, err := env.h.vault.Add(context.Background(), vault.AddInput{SourcePath: src})
	require.NoError(t, err)
	require.True(t, out.Added)
}

func (env *testEnv) do(method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestRootRedirects(t *testing.T) {
	env := setupTest(t)

	rec := env.do("GET", "/", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/files", rec.Header().Get("Location"))
}

func TestSecurityHeaders(t *testing.T) {
	env := setupTest(t)

	rec := env.do("GET", "/files", nil)
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestHandleList_Empty(t *testing.T) {
	env := setupTest(t)

	rec := env.do("GET", "/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Vault is empty.")
}

func TestHandleList(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "zeta.txt", "z")
	seedFile(t, env, "alpha.txt", strings.Repeat("a", 2000))
	require.NoError(t, env.h.vault.SetDescription(context.Background(), "alpha.txt", "first <file>"))

	rec := env.do("GET", "/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	require.Less(t, strings.Index(body, "alpha.txt"), strings.Index(body, "zeta.txt"))
	require.Contains(t, body, `href="/files/alpha.txt"`)
	require.Contains(t, body, "first &lt;file&gt;")
	require.Contains(t, body, "no description")
	require.Contains(t, body, "2.0 kB")
	require.Contains(t, body, "2 file(s)")
}

func TestHandleList_JSON(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "a.txt", "x")

	rec := env.do("GET", "/files", map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out vault.ListOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, []string{"a.txt"}, out.Filenames())
}

func TestHandleDetail_Text(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "script.sh", "echo <hi>\n")

	rec := env.do("GET", "/files/script.sh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<pre>echo &lt;hi&gt;\n</pre>")
	require.Contains(t, body, `href="/files/script.sh/raw"`)
	require.Contains(t, body, `action="/files/script.sh/remove"`)
}

func TestHandleDetail_Markdown(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "README.md", "# Hello\n\nSome *emphasis*.\n\n<script>alert(1)</script>\n")

	rec := env.do("GET", "/files/README.md", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<h1>Hello</h1>")
	require.Contains(t, body, "<em>emphasis</em>")
	require.NotContains(t, body, "<script>alert(1)</script>")
}

func TestHandleDetail_Binary(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "blob.bin", "\x00\x01\x02")

	rec := env.do("GET", "/files/blob.bin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "(binary file, 3 B)")
}

func TestHandleDetail_Truncated(t *testing.T) {
	env := setupTest(t)
	env.cfg.Preview.MaxBytes = 10
	seedFile(t, env, "long.txt", strings.Repeat("x", 50))

	rec := env.do("GET", "/files/long.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<pre>"+strings.Repeat("x", 10)+"</pre>")
	require.Contains(t, body, "(showing first 10 B)")
}

func TestHandleDetail_MissingCopy(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "gone.txt", "x")
	require.NoError(t, os.Remove(filepath.Join(env.cfg.VaultDir, "gone.txt")))

	rec := env.do("GET", "/files/gone.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "(file not found in vault)")
}

func TestHandleDetail_NotFound(t *testing.T) {
	env := setupTest(t)

	rec := env.do("GET", "/files/ghost.txt", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Error 404")

	rec = env.do("GET", "/files/ghost.txt", map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "NOT_FOUND", payload["error"]["code"])
}

func TestHandleRaw(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "notes.txt", "hello raw")

	rec := env.do("GET", "/files/notes.txt/raw", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello raw", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	require.Contains(t, rec.Header().Get("Content-Disposition"), "notes.txt")
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
}

func TestHandleRaw_NotFound(t *testing.T) {
	env := setupTest(t)

	rec := env.do("GET", "/files/ghost.txt/raw", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do("GET", "/files/..%5Cx/raw", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRemove(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "a.txt", "x")

	rec := env.do("POST", "/files/a.txt/remove", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/files?removed=a.txt", rec.Header().Get("Location"))

	_, err := os.Stat(filepath.Join(env.cfg.VaultDir, "a.txt"))
	require.True(t, os.IsNotExist(err))

	rec = env.do("GET", "/files?removed=a.txt", nil)
	require.Contains(t, rec.Body.String(), "Removed &#39;a.txt&#39;.")
	require.Contains(t, rec.Body.String(), "Vault is empty.")
}

func TestHandleRemove_JSON(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "a.txt", "x")

	rec := env.do("POST", "/files/a.txt/remove", map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out vault.RemoveOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, []string{"a.txt"}, out.Removed)
}

func TestHandleRemove_GetNotAllowed(t *testing.T) {
	env := setupTest(t)
	seedFile(t, env, "a.txt", "x")

	rec := env.do("GET", "/files/a.txt/remove", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRemove_CrossOrigin(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"cross-site form", map[string]string{
			"Origin":         "https://evil.example",
			"Sec-Fetch-Site": "cross-site",
			"Content-Type":   "application/x-www-form-urlencoded",
		}, http.StatusForbidden},
		{"foreign origin only", map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
		{"same-site subdomain", map[string]string{"Sec-Fetch-Site": "same-site"}, http.StatusForbidden},
		{"same origin", map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusSeeOther},
		{"matching origin", map[string]string{"Origin": "http://example.com"}, http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTest(t)
			seedFile(t, env, "notes.txt", "x")

			rec := env.do("POST", "/files/notes.txt/remove", tt.header)
			require.Equal(t, tt.want, rec.Code)

			names, err := env.h.vault.Filenames(context.Background())
			require.NoError(t, err)
			if tt.want == http.StatusForbidden {
				require.Equal(t, []string{"notes.txt"}, names)
				require.Contains(t, rec.Body.String(), "cross-origin requests are not allowed")
			} else {
				require.Empty(t, names)
			}
		})
	}
}

func TestStaticCSS(t *testing.T) {
	env := setupTest(t)

	rec := env.do("GET", "/static/style.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "table.files")
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, httpStatus("INVALID_REQUEST"))
	require.Equal(t, http.StatusNotFound, httpStatus("NOT_FOUND"))
	require.Equal(t, http.StatusInternalServerError, httpStatus("STORAGE_FAULT"))
	require.Equal(t, http.StatusInternalServerError, httpStatus("INTERNAL"))
}

func TestNewServerAndRun(t *testing.T) {
	env := setupTest(t)

	srv, err := NewServer(env.h.vault, env.cfg, "test", "127.0.0.1", 0, nil)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:0", srv.Addr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
