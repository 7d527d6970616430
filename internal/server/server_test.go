package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/54b3r/catalogai-go/internal/chat"
)

func TestNew_RejectsNilChatter(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &Config{}); err == nil {
		t.Fatal("expected error for nil chat service")
	}
}

func TestNew_RejectsMissingStaticDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "missing")
	if _, err := New(&fakeChatter{}, &Config{StaticDir: dir}); err == nil {
		t.Fatal("expected error for missing static dir")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeChatter{}, nil)
	if s.httpServer.Addr != "127.0.0.1:5001" {
		t.Errorf("expected default addr 127.0.0.1:5001, got %q", s.httpServer.Addr)
	}
	if s.cfg.WriteTimeout <= s.cfg.ChatTimeout {
		t.Errorf("write timeout %v must exceed chat timeout %v", s.cfg.WriteTimeout, s.cfg.ChatTimeout)
	}
}

// TestUI_Embedded verifies GET / serves the built-in chat page and script.
func TestUI_Embedded(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeChatter{}, nil)

	for path, want := range map[string]string{
		"/":             "Rutgers Catalog Assistant",
		"/js/script.js": "fetch('/chat'",
	} {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, w.Code)
			continue
		}
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("GET %s: body missing %q", path, want)
		}
	}
}

// TestUI_StaticDir verifies a configured directory replaces the embedded UI.
func TestUI_StaticDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>custom</h1>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	s, _ := newTestServer(t, &fakeChatter{}, &Config{StaticDir: dir})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "custom") {
		t.Errorf("expected custom index, got %s", body)
	}
}

// TestCORS_Preflight verifies browsers on another origin may call POST /chat
// with an Authorization header, and the preflight never reaches auth.
func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeChatter{}, &Config{
		APIKey:         "secret",
		AllowedOrigins: []string{"https://catalog.example.edu"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://catalog.example.edu")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://catalog.example.edu" {
		t.Errorf("Access-Control-Allow-Origin: got %q", got)
	}
}

// TestCORS_DisallowedOrigin verifies an unlisted origin gets no CORS grant.
func TestCORS_DisallowedOrigin(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeChatter{result: &chat.Result{}}, &Config{
		AllowedOrigins: []string{"https://catalog.example.edu"},
	})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Access-Control-Allow-Origin, got %q", got)
	}
}

func TestRoutes_GetChatFallsThroughToUI(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeChatter{}, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))

	// GET /chat falls through to the UI file server, which has no such file.
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for GET /chat, got %d", w.Code)
	}
}
