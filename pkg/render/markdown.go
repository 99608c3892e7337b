package render

import (
	"strings"

	"github.com/jmylchreest/chatxport/pkg/normalize"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

func (r *Renderer) markdown(messages []segment.Message) (string, []*RenderError) {
	var (
		sb       strings.Builder
		warnings []*RenderError
	)
	sb.WriteString("# " + Title + "\n\n")

	for i, m := range messages {
		content, err := r.markdownContent(m)
		if err != nil {
			warnings = append(warnings, &RenderError{Index: i, Speaker: m.Speaker, Err: err})
			content = escapeMarkdown(visibleText(m))
		}

		sb.WriteString("**" + m.Speaker.String() + ":**\n\n")
		sb.WriteString(content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String(), warnings
}

// markdownContent converts every part and joins the non-empty results with
// a blank line.
func (r *Renderer) markdownContent(m segment.Message) (string, error) {
	parts := make([]string, 0, len(m.Parts))
	for _, part := range m.Parts {
		md, err := r.normalizer.Normalize(part, normalize.Markdown)
		if err != nil {
			return "", err
		}
		if md != "" {
			parts = append(parts, md)
		}
	}
	return normalize.Collapse(strings.Join(parts, "\n\n")), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
)

// escapeMarkdown makes raw text safe to embed in a Markdown document.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
