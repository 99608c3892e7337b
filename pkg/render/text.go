package render

import (
	"strings"

	"github.com/jmylchreest/chatxport/pkg/segment"
)

const textRule = "------------------------"

// text writes the visible text of each message. No conversion runs, so this
// form cannot degrade.
func (r *Renderer) text(messages []segment.Message) string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(Title) + "\n\n")

	for _, m := range messages {
		sb.WriteString(m.Speaker.String() + ":\n\n")
		sb.WriteString(visibleText(m))
		sb.WriteString("\n\n" + textRule + "\n\n")
	}
	return sb.String()
}
