package chatxport

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/chatxport/pkg/page"
	"github.com/jmylchreest/chatxport/pkg/platform"
	"github.com/jmylchreest/chatxport/pkg/render"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

// readTestdata reads a file from the testdata directory
func readTestdata(t *testing.T, filename string) string {
	t.Helper()
	path := filepath.Join("testdata", filename)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read testdata %s: %v", filename, err)
	}
	return string(data)
}

func loadPage(t *testing.T, filename string) *page.Page {
	t.Helper()
	p, err := page.Load(readTestdata(t, filename), page.Options{})
	if err != nil {
		t.Fatalf("page.Load(%s) error = %v", filename, err)
	}
	return p
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
}

// captureSaver records every Save call.
type captureSaver struct {
	mu    sync.Mutex
	calls []savedDoc
	err   error
}

type savedDoc struct {
	content, filename, mimeType string
}

func (s *captureSaver) Save(_ context.Context, content, filename, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, savedDoc{content, filename, mimeType})
	return s.err
}

func TestNew_Collaborators(t *testing.T) {
	e := New()
	if e.config.Segmenter == nil || e.config.Renderer == nil || e.config.Detector == nil || e.config.Clock == nil {
		t.Fatalf("New() left a collaborator unset: %+v", e.config)
	}

	seg := segment.Default()
	r := render.New()
	e = New(WithSegmenter(seg), WithRenderer(r))
	if e.config.Segmenter != seg || e.config.Renderer != r {
		t.Error("New() replaced collaborators given as options")
	}
	if e.config.Saver != nil {
		t.Error("New() should not set a saver")
	}
}

func TestExport_Selectors(t *testing.T) {
	saver := &captureSaver{}
	e := New(WithSaver(saver), WithClock(fixedClock))

	doc, err := e.Export(context.Background(), loadPage(t, "claude.html"), render.Markdown)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if doc.Filename != "ai-conversation-claude-2025-01-02.md" {
		t.Errorf("Filename = %q", doc.Filename)
	}
	if len(saver.calls) != 1 {
		t.Fatalf("Save called %d times, want 1", len(saver.calls))
	}
	saved := saver.calls[0]
	if saved.content != doc.Body || saved.filename != doc.Filename || saved.mimeType != "text/markdown" {
		t.Errorf("saved %+v does not match document", saved)
	}

	// Turns alternate and keep page order.
	labels := []string{"**Human:**\n\nWhat is a closure?", "**Assistant:**\n\n## Closures", "**Human:**\n\nThanks!", "**Assistant:**\n\nYou're welcome."}
	last := -1
	for _, l := range labels {
		idx := strings.Index(doc.Body, l)
		if idx < 0 {
			t.Fatalf("Body missing %q\n%s", l, doc.Body)
		}
		if idx <= last {
			t.Errorf("%q out of order", l)
		}
		last = idx
	}

	for _, want := range []string{
		"A closure captures variables from its *enclosing* scope.",
		"```js\nconst add = (a) => (b) => a + b;\n```",
	} {
		if !strings.Contains(doc.Body, want) {
			t.Errorf("Body missing %q\n%s", want, doc.Body)
		}
	}
	if strings.Contains(doc.Body, "Copy") || strings.Contains(doc.Body, "New chat") {
		t.Errorf("Body contains page chrome:\n%s", doc.Body)
	}
}

func TestExport_LayoutFallback(t *testing.T) {
	e := New(WithClock(fixedClock))

	doc, err := e.Export(context.Background(), loadPage(t, "layout.html"), render.Markdown)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := "# AI Conversation Export\n\n" +
		"**Human:**\n\nCan you explain closures in JavaScript please?\n\n---\n\n" +
		"**Assistant:**\n\nA closure is a function bundled together with its lexical environment.\n\n---\n\n"
	if doc.Body != want {
		t.Errorf("Body = %q, want %q", doc.Body, want)
	}
}

func TestExport_EmptyContainer(t *testing.T) {
	saver := &captureSaver{}
	e := New(WithSaver(saver))

	_, err := e.Export(context.Background(), loadPage(t, "empty.html"), render.Markdown)
	if !errors.Is(err, ErrNoMessagesFound) {
		t.Fatalf("Export() error = %v, want ErrNoMessagesFound", err)
	}
	if len(saver.calls) != 0 {
		t.Error("nothing should be saved")
	}
}

func TestExport_Formats(t *testing.T) {
	tests := []struct {
		format   render.Format
		filename string
		contains string
	}{
		{render.Markdown, "ai-conversation-claude-2025-01-02.md", "# AI Conversation Export"},
		{render.HTML, "ai-conversation-claude-2025-01-02.html", `<div class="sender assistant">Assistant:</div>`},
		{render.Text, "ai-conversation-claude-2025-01-02.txt", "AI CONVERSATION EXPORT"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := New(WithClock(fixedClock)).Export(context.Background(), loadPage(t, "claude.html"), tt.format)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if doc.Filename != tt.filename {
				t.Errorf("Filename = %q, want %q", doc.Filename, tt.filename)
			}
			if !strings.Contains(doc.Body, tt.contains) {
				t.Errorf("Body missing %q", tt.contains)
			}
		})
	}
}

func TestExport_Platform(t *testing.T) {
	src := `<html data-xport-url="https://chatgpt.com/c/1"><body><main>
<div data-testid="user-message">Hello</div><div data-testid="assistant-message">Hi</div>
</main></body></html>`
	p, err := page.Load(src, page.Options{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = New().Export(context.Background(), p, render.Markdown)
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("Export() error = %v, want ErrUnsupportedPlatform", err)
	}

	doc, err := New(WithAllowUnsupported(true), WithClock(fixedClock)).Export(context.Background(), p, render.Markdown)
	if err != nil {
		t.Fatalf("Export() with AllowUnsupported error = %v", err)
	}
	if doc.Filename != "ai-conversation-chatgpt-2025-01-02.md" {
		t.Errorf("Filename = %q", doc.Filename)
	}

	doc, err = New(WithPlatformDetector(platform.Fixed(platform.Claude)), WithClock(fixedClock)).
		Export(context.Background(), p, render.Markdown)
	if err != nil {
		t.Fatalf("Export() with fixed detector error = %v", err)
	}
	if doc.Filename != "ai-conversation-claude-2025-01-02.md" {
		t.Errorf("Filename = %q", doc.Filename)
	}
}

func TestExport_SaveErrorSurfacesOnce(t *testing.T) {
	saveErr := errors.New("disk full")
	saver := &captureSaver{err: saveErr}

	_, err := New(WithSaver(saver)).Export(context.Background(), loadPage(t, "claude.html"), render.Markdown)
	if !errors.Is(err, saveErr) {
		t.Fatalf("Export() error = %v, want %v", err, saveErr)
	}
	if len(saver.calls) != 1 {
		t.Errorf("Save called %d times, want 1", len(saver.calls))
	}
}

func TestExport_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Export(ctx, loadPage(t, "claude.html"), render.Markdown)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Export() error = %v, want context.Canceled", err)
	}
}

func TestExport_InFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := SaverFunc(func(ctx context.Context, _, _, _ string) error {
		close(entered)
		<-release
		return nil
	})

	e := New(WithSaver(blocking))
	p := loadPage(t, "claude.html")

	done := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), p, render.Markdown)
		done <- err
	}()

	<-entered
	if _, err := e.Export(context.Background(), p, render.Markdown); !errors.Is(err, ErrExportInFlight) {
		t.Errorf("concurrent Export() error = %v, want ErrExportInFlight", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("first Export() error = %v", err)
	}

	// The guard is released afterwards.
	e.config.Saver = nil
	if _, err := e.Export(context.Background(), p, render.Markdown); err != nil {
		t.Errorf("Export() after completion error = %v", err)
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		req         Request
		wantSuccess bool
		wantErr     string
	}{
		{"markdown", "claude.html", Request{Action: ActionExport, Format: "markdown"}, true, ""},
		{"default format", "claude.html", Request{Action: ActionExport}, true, ""},
		{"empty container", "empty.html", Request{Action: ActionExport, Format: "md"}, false, "unable to detect conversation"},
		{"bad format", "claude.html", Request{Action: ActionExport, Format: "pdf"}, false, "unsupported export format"},
		{"unknown action", "claude.html", Request{Action: "delete"}, false, "unknown action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := New().Handle(context.Background(), loadPage(t, tt.file), tt.req)
			if resp.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v (error %q)", resp.Success, tt.wantSuccess, resp.Error)
			}
			if !strings.Contains(resp.Error, tt.wantErr) {
				t.Errorf("Error = %q, want it to contain %q", resp.Error, tt.wantErr)
			}
			if tt.wantSuccess && resp.Filename == "" {
				t.Error("Filename should be set on success")
			}
		})
	}
}

func TestHandle_RecoversPanic(t *testing.T) {
	panicky := SaverFunc(func(context.Context, string, string, string) error {
		panic("saver exploded")
	})
	e := New(WithSaver(panicky))

	resp := e.Handle(context.Background(), loadPage(t, "claude.html"), Request{Action: ActionExport})
	if resp.Success {
		t.Fatal("Success should be false after a panic")
	}
	if !strings.Contains(resp.Error, "saver exploded") {
		t.Errorf("Error = %q", resp.Error)
	}

	// The in-flight guard is released by the deferred reset.
	e.config.Saver = nil
	if resp := e.Handle(context.Background(), loadPage(t, "claude.html"), Request{Action: ActionExport}); !resp.Success {
		t.Errorf("Handle() after panic = %+v", resp)
	}
}

func TestDirSaver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s := DirSaver{Dir: dir}

	if err := s.Save(context.Background(), "body", "../escape/a.md", "text/markdown"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.md"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "body" {
		t.Errorf("content = %q", data)
	}
	if got := (DirSaver{}).Path("x.md"); got != "x.md" {
		t.Errorf("Path() = %q", got)
	}
}

func TestWriterSaver(t *testing.T) {
	var buf bytes.Buffer
	if err := (WriterSaver{W: &buf}).Save(context.Background(), "hello", "f.md", "text/markdown"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if buf.String() != "hello" {
		t.Errorf("wrote %q", buf.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (WriterSaver{W: &buf}).Save(ctx, "x", "f.md", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
}
