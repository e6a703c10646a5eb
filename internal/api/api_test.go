package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"repoviz/internal/config"
	"repoviz/internal/extract"
	"repoviz/internal/llm"
	"repoviz/internal/scan"
	"repoviz/internal/source"
	"repoviz/internal/store"
)

type echoCompleter struct {
	prompts []string
}

func (e *echoCompleter) Complete(_ context.Context, prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	return "answer", nil
}

type testEnv struct {
	server    *Server
	store     *store.Store
	completer *echoCompleter
}

func newTestServer(t *testing.T, mutate func(*config.ServerConfig, *Options)) *testEnv {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "scans.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	filter, err := source.NewFilter(config.DefaultIgnore, 1<<20, 1000)
	require.NoError(t, err)

	ec := &echoCompleter{}
	cfg := config.DefaultConfig().Server
	opts := Options{
		Pipeline:  scan.NewPipeline(extract.NewRegexExtractor(nil), 2, nil),
		Store:     st,
		Archives:  source.NewArchiveLoader(filter, nil, 0),
		Git:       source.NewGitLoader(nil, 1, 0, nil),
		Assistant: llm.NewAssistant(ec, nil, 0, nil),
	}
	if mutate != nil {
		mutate(&cfg, &opts)
	}
	return &testEnv{server: NewServer(cfg, opts, nil), store: st, completer: ec}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

var project = map[string]string{
	"app/src/index.js":      "import { api } from './api'\nimport './styles.css'\napi()\n",
	"app/src/api.js":        "export async function api() { return fetch('/x') }\n",
	"app/src/styles.css":    "body { margin: 0 }\n",
	"app/package.json":      `{"dependencies": {"react": "^18.0.0"}}`,
	"app/node_modules/x.js": "module.exports = 1\n",
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func uploadRaw(t *testing.T, env *testEnv) *scan.Result {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/scans", bytes.NewReader(zipBytes(t, project)))
	req.Header.Set("X-Filename", "app.zip")
	rec := env.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	r := decode[scan.Result](t, rec)
	return &r
}

func TestHealth(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadyResponse](t, rec)
	assert.True(t, ready.Components["store"])
	assert.True(t, ready.Components["llm"])
}

func TestReady_NoStore(t *testing.T) {
	env := newTestServer(t, func(_ *config.ServerConfig, o *Options) { o.Store = nil })

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpload_RawBody(t *testing.T) {
	env := newTestServer(t, nil)

	r := uploadRaw(t, env)

	assert.Equal(t, "app.zip", r.Source)
	paths := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"src/index.js", "src/api.js", "src/styles.css", "package.json"}, paths)
	assert.Equal(t, []string{"react"}, r.Dependencies)
	require.NotNil(t, r.Graph)
	assert.Len(t, r.Graph.Edges, 2)

	stored, err := env.store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, stored.ID)
}

func TestUpload_Multipart(t *testing.T) {
	env := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile("archive", "../../project.zip")
	require.NoError(t, err)
	_, err = fw.Write(zipBytes(t, project))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/scans", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := env.do(t, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "project.zip", decode[scan.Result](t, rec).Source)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   []byte
		file   string
		limit  int64
		status int
		code   string
	}{
		{"too large", zipBytes(t, project), "app.zip", 64, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE"},
		{"not an archive", []byte("just some text"), "notes.txt", 0, http.StatusUnsupportedMediaType, "UNSUPPORTED_ARCHIVE"},
		{"empty", nil, "app.zip", 0, http.StatusBadRequest, "INVALID_INPUT"},
		{"no source files", zipBytes(t, map[string]string{"img/logo.png": "x", "img/icon.png": "y"}), "app.zip", 0, http.StatusUnprocessableEntity, "NO_SOURCE_FILES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestServer(t, func(c *config.ServerConfig, _ *Options) {
				if tt.limit > 0 {
					c.MaxUploadBytes = tt.limit
				}
			})
			req := httptest.NewRequest(http.MethodPost, "/api/scans", bytes.NewReader(tt.body))
			req.Header.Set("X-Filename", tt.file)
			rec := env.do(t, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestScanURL_Invalid(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/scans/url", strings.NewReader(`{"url": "file:///etc"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/scans/url", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode[ErrorResponse](t, rec).Code)
}

func TestScanLifecycle(t *testing.T) {
	env := newTestServer(t, nil)
	r := uploadRaw(t, env)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ScanListResponse](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, r.ID, list.Scans[0].ID)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans/"+r.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, r.ID, decode[scan.Result](t, rec).ID)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans/"+r.ID+"/graph", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[GraphResponse](t, rec)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 2)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans/"+r.ID+"/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[FilesResponse](t, rec).Count)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans/"+r.ID+"/files?language=css", nil))
	assert.Equal(t, 1, decode[FilesResponse](t, rec).Count)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans/"+r.ID+"/files?path=src/api.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var file map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &file))
	assert.Equal(t, "src/api.js", file["path"])
	assert.Contains(t, file["content"], "export async function api")
	assert.Equal(t, []interface{}{"src/index.js"}, file["importedBy"])
	assert.Equal(t, []interface{}{}, file["imports"])

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/scans/"+r.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans/"+r.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SCAN_NOT_FOUND", decode[ErrorResponse](t, rec).Code)
}

func TestAskAndDocs(t *testing.T) {
	env := newTestServer(t, nil)
	r := uploadRaw(t, env)

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/scans/"+r.ID+"/ask", strings.NewReader(`{"question": "what does api do?"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ans := decode[llm.Answer](t, rec)
	assert.Equal(t, "answer", ans.Text)
	require.Len(t, env.completer.prompts, 1)
	assert.Contains(t, env.completer.prompts[0], "export async function api", "stored contents reach the prompt")

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/scans/"+r.ID+"/docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/scans/"+r.ID+"/ask", strings.NewReader(`{"question": ""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_NoModel(t *testing.T) {
	env := newTestServer(t, func(_ *config.ServerConfig, o *Options) { o.Assistant = nil })
	r := uploadRaw(t, env)

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/scans/"+r.ID+"/ask", strings.NewReader(`{"question": "why?"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "LLM_UNAVAILABLE", decode[ErrorResponse](t, rec).Code)
}

func TestAuth(t *testing.T) {
	token := "rvz_sk_" + strings.Repeat("ab", 32)
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.Repeat("ab", 32)), bcrypt.MinCost)
	require.NoError(t, err)

	env := newTestServer(t, func(c *config.ServerConfig, _ *Options) { c.TokenHash = string(hash) })

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is public")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/scans", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	req.Header.Set("Authorization", "Bearer rvz_sk_"+strings.Repeat("cd", 32))
	assert.Equal(t, http.StatusUnauthorized, env.do(t, req).Code)

	for i := 0; i < 2; i++ {
		req = httptest.NewRequest(http.MethodGet, "/api/scans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusOK, env.do(t, req).Code)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/scans", nil)
	assert.Equal(t, http.StatusOK, env.do(t, req).Code, "preflight skips auth")
}

func TestRecovery(t *testing.T) {
	h := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode[ErrorResponse](t, rec).Code)
}

func TestRequestID_Propagates(t *testing.T) {
	env := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-1")

	assert.Equal(t, "req-1", env.do(t, req).Header().Get("X-Request-ID"))
}

func TestRoot(t *testing.T) {
	env := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, httptest.NewRequest(http.MethodGet, "/nope", nil)).Code)
}
