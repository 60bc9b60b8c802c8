// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/upload"
)

// =============================================================================
// TEST BACKEND
// =============================================================================

type wireMsg struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// backend is an in-memory Health Insights service with a blob endpoint.
type backend struct {
	mu       sync.Mutex
	history  []wireMsg
	reply    string
	analysis string
	calls    []string
	sent     []string
	putType  string
	analyzed string

	server *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		reply:    "Your LDL is within range.",
		analysis: `{"summary":"Cholesterol looks normal.","metrics":[{"name":"LDL","value":90,"unit":"mg/dL"}]}`,
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, r.Method+" "+r.URL.Path)

	if r.URL.Path != "/blob/report" && r.Header.Get("Authorization") != "Bearer test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.Method + " " + r.URL.Path {
	case "GET /messages":
		json.NewEncoder(w).Encode(map[string]any{"messages": b.history})
	case "POST /chat":
		var req struct {
			Message string `json:"message"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.sent = append(b.sent, req.Message)
		b.history = append(b.history, wireMsg{"user", req.Message}, wireMsg{"assistant", b.reply})
		json.NewEncoder(w).Encode(map[string]string{"thread_id": "t1", "agent_reply": b.reply})
	case "POST /reports/upload-url":
		json.NewEncoder(w).Encode(map[string]string{
			"sasUrl":  b.server.URL + "/blob/report",
			"blobUrl": "https://blobs.example/report",
		})
	case "PUT /blob/report":
		io.Copy(io.Discard, r.Body)
		b.putType = r.Header.Get(upload.BlobTypeHeader)
		w.WriteHeader(http.StatusCreated)
	case "POST /reports/analyze":
		var req struct {
			BlobURL string `json:"blobUrl"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.analyzed = req.BlobURL
		w.Write([]byte(`{"reportId":"r1","analysis":` + b.analysis + `}`))
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) seed(msgs ...wireMsg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, msgs...)
}

func (b *backend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// =============================================================================
// HELPERS
// =============================================================================

// isolate points HOME at a temp dir and clears INSIGHTS_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"INSIGHTS_API_BASE_URL", "INSIGHTS_TOKEN", "INSIGHTS_TOKEN_COMMAND",
		"INSIGHTS_USER_ID", "INSIGHTS_WATCH_DIR", "INSIGHTS_LOG_LEVEL", "INSIGHTS_THEME"} {
		t.Setenv(k, "")
	}
	t.Setenv("NO_COLOR", "1")
	return home
}

// execute runs the command tree with the given stdin.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// signedIn prepares an isolated home with a static token.
func signedIn(t *testing.T) *backend {
	t.Helper()
	isolate(t)
	t.Setenv("INSIGHTS_TOKEN", "test-token")
	return newBackend(t)
}

func writeReport(t *testing.T, name string, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

// =============================================================================
// HISTORY AND ASK
// =============================================================================

func TestHistory_PrintsTranscript(t *testing.T) {
	b := signedIn(t)
	b.seed(wireMsg{"assistant", "### Report analysis\n\nAll normal."}, wireMsg{"user", "Thanks!"})

	out, _, err := execute(t, "", "history", "--api", b.server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Health Insights")
	assert.Contains(t, out, "All normal.")
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "Thanks!")
}

func TestHistory_Empty(t *testing.T) {
	b := signedIn(t)

	out, _, err := execute(t, "", "history", "--api", b.server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "No messages yet")
}

func TestHistory_Unauthorized(t *testing.T) {
	isolate(t)
	t.Setenv("INSIGHTS_TOKEN", "wrong")
	b := newBackend(t)

	_, _, err := execute(t, "", "history", "--api", b.server.URL)
	require.Error(t, err)
}

func TestAsk_RequiresAnalyzedReport(t *testing.T) {
	b := signedIn(t)

	_, _, err := execute(t, "", "ask", "--api", b.server.URL, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analyzed report")
	assert.NotContains(t, b.callLog(), "POST /chat")
}

func TestAsk_PrintsReply(t *testing.T) {
	b := signedIn(t)
	b.seed(wireMsg{"assistant", "analysis"})

	out, _, err := execute(t, "", "ask", "--api", b.server.URL, "Is", "my", "LDL", "high?")
	require.NoError(t, err)
	assert.Contains(t, out, "Your LDL is within range.")
	assert.Equal(t, []string{"Is my LDL high?"}, b.sent)
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestUpload_WithoutAnalyzePrintsBlob(t *testing.T) {
	b := signedIn(t)
	path := writeReport(t, "cbc.pdf", "%PDF-1.4\n%test\n")

	out, _, err := execute(t, "", "upload", "--api", b.server.URL, path)
	require.NoError(t, err)
	assert.Contains(t, out, "https://blobs.example/report")
	assert.Equal(t, "BlockBlob", b.putType)
	assert.NotContains(t, b.callLog(), "POST /reports/analyze")
}

func TestUpload_AnalyzePrintsResult(t *testing.T) {
	b := signedIn(t)
	path := writeReport(t, "cbc.pdf", "%PDF-1.4\n%test\n")

	out, errOut, err := execute(t, "", "upload", "--analyze", "--api", b.server.URL, path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Uploaded cbc.pdf")
	assert.Contains(t, out, "Cholesterol looks normal.")
	assert.Contains(t, out, "LDL")
	assert.Equal(t, "https://blobs.example/report", b.analyzed)
}

func TestUpload_RejectsUnsupportedFile(t *testing.T) {
	b := signedIn(t)
	path := writeReport(t, "notes.txt", "just some text")

	_, _, err := execute(t, "", "upload", "--api", b.server.URL, path)
	require.Error(t, err)
	assert.Empty(t, b.callLog(), "validation must happen before any request")
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExport_WritesFile(t *testing.T) {
	b := signedIn(t)
	b.seed(wireMsg{"assistant", "### Report analysis\n\nAll normal."}, wireMsg{"user", "Thanks!"})
	dir := t.TempDir()

	out, _, err := execute(t, "", "export", "--api", b.server.URL, "--format", "html", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to")

	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "All normal.")
}

func TestExport_Stdout(t *testing.T) {
	b := signedIn(t)
	b.seed(wireMsg{"user", "hello"})

	out, _, err := execute(t, "", "export", "--api", b.server.URL, "--format", "json", "--stdout")
	require.NoError(t, err)

	var got struct {
		Messages []map[string]string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0]["text"])
}

func TestExport_RejectsUnknownFormat(t *testing.T) {
	b := signedIn(t)

	_, _, err := execute(t, "", "export", "--api", b.server.URL, "--format", "pdf")
	require.Error(t, err)
	assert.Empty(t, b.callLog())
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

func TestLoginLogout(t *testing.T) {
	home := isolate(t)
	tokenFile := filepath.Join(home, ".insights", "token")

	out, _, err := execute(t, "test-token\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Token saved")

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "test-token", strings.TrimSpace(string(data)))

	info, err := os.Stat(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// The saved token is picked up by later commands.
	b := newBackend(t)
	_, _, err = execute(t, "", "history", "--api", b.server.URL)
	require.NoError(t, err)

	out, _, err = execute(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.NoFileExists(t, tokenFile)
}

func TestLogin_EmptyInput(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "\n", "login")
	require.Error(t, err)
}

func TestLogin_CheckRejectsBadToken(t *testing.T) {
	home := isolate(t)
	b := newBackend(t)

	_, _, err := execute(t, "nope\n", "login", "--check", "--api", b.server.URL)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(home, ".insights", "token"))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_InitSetGet(t *testing.T) {
	home := isolate(t)
	t.Setenv("INSIGHTS_TOKEN", "secret-from-env")

	out, _, err := execute(t, "", "config", "path")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(home, ".insights", "config.toml"), path)

	_, _, err = execute(t, "", "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, _, err = execute(t, "", "config", "init")
	require.Error(t, err, "init must not overwrite without --force")
	_, _, err = execute(t, "", "config", "init", "--force")
	require.NoError(t, err)

	_, _, err = execute(t, "", "config", "set", "api.timeout_secs", "15")
	require.NoError(t, err)

	out, _, err = execute(t, "", "config", "get", "api.timeout_secs")
	require.NoError(t, err)
	assert.Equal(t, "15", strings.TrimSpace(out))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-from-env")

	out, _, err = execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "secret-from-env")
	assert.Contains(t, out, "[REDACTED]")
}

func TestConfig_SetRejectsInvalid(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "config", "set", "ui.theme", "neon")
	require.Error(t, err)

	_, _, err = execute(t, "", "config", "get", "no.such.key")
	require.Error(t, err)
}

func TestConfig_ShowWorksWithBrokenFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".insights")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[ui]\ntheme = \"neon\"\n"), 0600))

	_, _, err := execute(t, "", "history")
	require.Error(t, err)

	_, _, err = execute(t, "", "config", "show")
	require.NoError(t, err)
}

// =============================================================================
// REPL
// =============================================================================

// scriptedLines feeds the REPL a fixed script, then EOF.
type scriptedLines struct {
	lines   []string
	history []string
}

func (s *scriptedLines) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedLines) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func newTestRepl(t *testing.T, b *backend) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	a := &App{log: zap.NewNop(), apiURL: b.server.URL}
	require.NoError(t, a.setup(&cobra.Command{}, nil))
	t.Cleanup(func() { a.log.Sync() })

	sess, err := a.newSession(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.store.Load(context.Background()))

	var out, errOut bytes.Buffer
	return &repl{
		store:  sess.store,
		up:     sess.transport,
		print:  a.newPrinter(&out),
		out:    &out,
		errOut: &errOut,
		log:    zap.NewNop(),
	}, &out, &errOut
}

func TestRepl_UploadAnalyzeThenChat(t *testing.T) {
	b := signedIn(t)
	r, out, errOut := newTestRepl(t, b)
	path := writeReport(t, "lipids.pdf", "%PDF-1.4\n%test\n")

	lines := &scriptedLines{lines: []string{
		"hello before analysis",
		"/analyze",
		"/upload " + path,
		"/analyze",
		"What about HDL?",
		"/quit",
		"never read",
	}}
	require.NoError(t, r.run(context.Background(), lines))

	assert.Contains(t, errOut.String(), "no analyzed report yet")
	assert.Contains(t, errOut.String(), "no uploaded report")
	assert.Contains(t, out.String(), "lipids.pdf uploaded")
	assert.Contains(t, out.String(), "Cholesterol looks normal.")
	assert.Contains(t, out.String(), "Your LDL is within range.")
	assert.Equal(t, []string{"What about HDL?"}, b.sent)
	assert.Equal(t, []string{"never read"}, lines.lines)
}

func TestRepl_HelpUnknownAndEOF(t *testing.T) {
	b := signedIn(t)
	r, out, errOut := newTestRepl(t, b)

	lines := &scriptedLines{lines: []string{"", "/help", "/bogus", "/history"}}
	require.NoError(t, r.run(context.Background(), lines))

	assert.Contains(t, out.String(), "/upload <file>")
	assert.Contains(t, errOut.String(), "unknown command /bogus")
	assert.Equal(t, []string{"/help", "/bogus", "/history"}, lines.history)
}

func TestRepl_ExitWord(t *testing.T) {
	b := signedIn(t)
	r, _, _ := newTestRepl(t, b)

	lines := &scriptedLines{lines: []string{"exit", "/help"}}
	require.NoError(t, r.run(context.Background(), lines))
	assert.Len(t, lines.lines, 1)
}
