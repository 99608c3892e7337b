package sanitize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
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

func TestClean_Attributes(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"class", `<p class="x">a</p>`, `<p>a</p>`},
		{"id and style", `<p id="p1" style="color: red">a</p>`, `<p>a</p>`},
		{"data attributes", `<p data-testid="user-message" data-xport-box="1,2,3,4">a</p>`, `<p>a</p>`},
		{"aria attributes", `<p aria-label="x" aria-hidden="false">a</p>`, `<p>a</p>`},
		{"single quoted", `<p class='x' data-a='1'>a</p>`, `<p>a</p>`},
		{"keeps href and src", `<a href="https://x.com" class="l">x</a><img src="a.png" alt="a" class="i">`, `<a href="https://x.com">x</a><img src="a.png" alt="a"/>`},
		{"does not touch similar names", `<table><tbody><tr><td colspan="2" class="c">a</td></tr></tbody></table>`, `<td colspan="2">a</td>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Clean(tt.input)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Clean() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestClean_EmptyElementsSinglePass(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty span removed", `<p>a<span> </span></p>`, `<p>a</p>`},
		{"emptied parent kept", `<div><span></span></div><p>x</p>`, `<div></div><p>x</p>`},
		{"void elements kept", `<p>a<br/>b</p><hr/>`, `<p>a<br/>b</p><hr/>`},
		{"empty cells kept", `<table><tbody><tr><td></td><td>1</td></tr></tbody></table>`, `<table><tbody><tr><td></td><td>1</td></tr></tbody></table>`},
		{"element with void child kept", `<p><img src="a.png"/></p>`, `<p><img src="a.png"/></p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := c.Clean(tt.input)
			if got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClean_Whitespace(t *testing.T) {
	c := New(nil)

	got, _ := c.Clean("\n  <p>one   two\n three</p>\n  <pre>keep\n    indent</pre>  ")
	want := "<p>one two three</p> <pre>keep\n    indent</pre>"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestClean_Comments(t *testing.T) {
	c := New(nil)
	result := c.CleanWithStats(`<p>a<!-- hidden --></p><!-- two -->`)

	if strings.Contains(result.Content, "hidden") {
		t.Errorf("comment survived: %q", result.Content)
	}
	if result.Stats.CommentsRemoved != 2 {
		t.Errorf("CommentsRemoved = %d, want 2", result.Stats.CommentsRemoved)
	}
}

func TestPresetAttributesOnly(t *testing.T) {
	c := New(PresetAttributesOnly())

	input := "<div class=\"x\">\n  <span></span>\n</div>"
	got, _ := c.Clean(input)
	want := "<div>\n  <span></span>\n</div>"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanWithStats_Message(t *testing.T) {
	c := New(nil)
	input := readTestdata(t, "message.html")

	result := c.CleanWithStats(input)
	if result.HasWarnings() {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	for _, banned := range []string{"class=", "data-", "aria-", "style=", "id="} {
		if strings.Contains(result.Content, banned) {
			t.Errorf("output still contains %q: %s", banned, result.Content)
		}
	}
	for _, kept := range []string{"<h2>Answer</h2>", "<strong>bold</strong>", "<pre><code>", `<a href="https://example.com/docs">docs</a>`} {
		if !strings.Contains(result.Content, kept) {
			t.Errorf("output missing %q: %s", kept, result.Content)
		}
	}

	s := result.Stats
	if s.InputBytes != len(input) {
		t.Errorf("InputBytes = %d, want %d", s.InputBytes, len(input))
	}
	if s.OutputBytes != len(result.Content) {
		t.Errorf("OutputBytes = %d, want %d", s.OutputBytes, len(result.Content))
	}
	if s.AttributesRemoved == 0 {
		t.Error("AttributesRemoved should be counted")
	}
	if s.EmptyElementRemovals == 0 || s.ElementsRemoved["div"] == 0 {
		t.Errorf("empty removals not recorded: %+v", s.ElementsRemoved)
	}
	if s.ReductionPercent() <= 0 {
		t.Errorf("ReductionPercent() = %v, want > 0", s.ReductionPercent())
	}
}

func TestStats_String(t *testing.T) {
	s := NewStats()
	s.InputBytes = 2000
	s.OutputBytes = 1000
	s.AttributesRemoved = 3
	s.RecordRemoval("SPAN")
	s.RecordRemoval("div")

	out := s.String()
	for _, want := range []string{"2.0 kB -> 1.0 kB", "50.0% reduction", "Attributes removed: 3", "div=1, span=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() = %q, missing %q", out, want)
		}
	}
}

func TestWarning_String(t *testing.T) {
	tests := []struct {
		w    Warning
		want string
	}{
		{Warning{Phase: "parse", Message: "failed"}, "[parse] failed"},
		{Warning{Phase: "output", Message: "failed", Context: "eof"}, "[output] failed (context: eof)"},
	}
	for _, tt := range tests {
		if got := tt.w.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	if got := New(nil).Name(); got != "sanitize" {
		t.Errorf("Name() = %q", got)
	}
}
