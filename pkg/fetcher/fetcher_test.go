package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sharePage = `<!DOCTYPE html><html><head><title>Shared chat</title></head>
<body><main><div data-testid="user-message">Hi</div><div data-testid="assistant-message">Hello</div></main></body></html>`

func TestStaticFetcher_Fetch(t *testing.T) {
	var gotUA, gotCookie, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotHeader = r.Header.Get("X-Test")
		if c, err := r.Cookie("sessionKey"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(sharePage))
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{UserAgent: "chatxport-test"})
	content, err := f.Fetch(context.Background(), srv.URL+"/share/1", Options{
		Headers: map[string]string{"X-Test": "yes"},
		Cookies: []Cookie{{Name: "sessionKey", Value: "abc"}},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if content.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", content.StatusCode)
	}
	if content.Title != "Shared chat" {
		t.Errorf("Title = %q", content.Title)
	}
	if content.Stamped {
		t.Error("static pages carry no layout stamps")
	}
	if gotUA != "chatxport-test" || gotHeader != "yes" || gotCookie != "abc" {
		t.Errorf("request ua=%q header=%q cookie=%q", gotUA, gotHeader, gotCookie)
	}

	p, err := content.Page()
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if p.URL() != srv.URL+"/share/1" {
		t.Errorf("Page().URL() = %q", p.URL())
	}
	if p.HasLayout() {
		t.Error("HasLayout() should be false")
	}
}

func TestStaticFetcher_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/chat/1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login?next=/chat/1", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewStatic(DefaultStaticConfig())

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing", Options{}); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/chat/1", Options{}); !errors.Is(err, ErrLoginRequired) {
		t.Errorf("redirect to login: error = %v, want ErrLoginRequired", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/empty", Options{}); !errors.Is(err, ErrEmptyPage) {
		t.Errorf("empty body: error = %v, want ErrEmptyPage", err)
	}
}

func TestStaticFetcher_Type(t *testing.T) {
	f := NewStatic(StaticConfig{})
	if f.Type() != "static" {
		t.Errorf("Type() = %q", f.Type())
	}
	if f.config.Timeout == 0 || f.config.UserAgent == "" || f.config.MaxBodySize == 0 {
		t.Errorf("defaults not applied: %+v", f.config)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.html")
	stamped := `<html data-xport-url="https://claude.ai/chat/1"><body><div data-xport-box="0,0,10,10">x</div></body></html>`
	if err := os.WriteFile(path, []byte(stamped), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFile()
	content, err := f.Fetch(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !content.Stamped {
		t.Error("Stamped should be true")
	}
	if content.URL != "" || content.Source != path {
		t.Errorf("URL = %q, Source = %q", content.URL, content.Source)
	}

	p, err := content.Page()
	if err != nil {
		t.Fatal(err)
	}
	if p.URL() != "https://claude.ai/chat/1" {
		t.Errorf("stamped URL not used: %q", p.URL())
	}
}

func TestFileFetcher_Stdin(t *testing.T) {
	f := &FileFetcher{Stdin: strings.NewReader(sharePage)}
	content, err := f.Fetch(context.Background(), "-", Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if content.Title != "Shared chat" {
		t.Errorf("Title = %q", content.Title)
	}
}

func TestFileFetcher_Errors(t *testing.T) {
	f := &FileFetcher{Stdin: strings.NewReader("")}

	if _, err := f.Fetch(context.Background(), "-", Options{}); !errors.Is(err, ErrEmptyPage) {
		t.Errorf("empty stdin: error = %v, want ErrEmptyPage", err)
	}
	if _, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.html"), Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: error = %v", err)
	}

	big := &FileFetcher{Stdin: strings.NewReader(strings.Repeat("a", 100))}
	if _, err := big.Fetch(context.Background(), "-", Options{MaxBodySize: 10}); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("oversized: error = %v", err)
	}
}

func TestParseCookie(t *testing.T) {
	tests := []struct {
		in      string
		want    Cookie
		wantErr bool
	}{
		{"sessionKey=abc", Cookie{Name: "sessionKey", Value: "abc"}, false},
		{"sessionKey=a=b; domain=.claude.ai; path=/chat", Cookie{Name: "sessionKey", Value: "a=b", Domain: ".claude.ai", Path: "/chat"}, false},
		{"novalue", Cookie{}, true},
		{"=x", Cookie{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCookie(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCookie() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCookie() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if c := (Cookie{Name: "a", Value: "b"}).HTTPCookie(); c.Path != "/" {
		t.Errorf("HTTPCookie().Path = %q", c.Path)
	}
}

func TestIsLoginURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://claude.ai/login?returnTo=/chat/1", true},
		{"https://accounts.example.com/signin", true},
		{"https://chatgpt.com/auth/login", true},
		{"https://claude.ai/chat/1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsLoginURL(tt.url); got != tt.want {
			t.Errorf("IsLoginURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
