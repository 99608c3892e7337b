package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/pkg/cleaner"
	"github.com/jmylchreest/chatxport/pkg/cleaner/sanitize"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

//go:embed export.html.tmpl
var exportTemplate string

var htmlTemplate = template.Must(template.New("export").Parse(exportTemplate))

type htmlMessage struct {
	Class   string
	Label   string
	Content template.HTML
}

type htmlPage struct {
	Title    string
	Messages []htmlMessage
}

func (r *Renderer) htmlDocument(messages []segment.Message) (string, []*RenderError, error) {
	data := htmlPage{Title: Title, Messages: make([]htmlMessage, 0, len(messages))}
	var warnings []*RenderError

	for i, m := range messages {
		content, notes, err := r.htmlContent(m)
		for _, note := range notes {
			warnings = append(warnings, &RenderError{Index: i, Speaker: m.Speaker, Err: note})
		}
		if err != nil {
			warnings = append(warnings, &RenderError{Index: i, Speaker: m.Speaker, Err: err})
			content = escapedText(visibleText(m))
		}
		data.Messages = append(data.Messages, htmlMessage{
			Class:   strings.ToLower(m.Speaker.String()),
			Label:   m.Speaker.String(),
			Content: content,
		})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", nil, fmt.Errorf("execute html template: %w", err)
	}
	return buf.String(), warnings, nil
}

// htmlContent cleans the inner HTML of every part and joins them with a
// double line break. Non-fatal cleaner problems come back as notes.
func (r *Renderer) htmlContent(m segment.Message) (template.HTML, []error, error) {
	parts := make([]string, 0, len(m.Parts))
	var notes []error
	for _, part := range m.Parts {
		inner, err := part.InnerHTML()
		if err != nil {
			return "", notes, fmt.Errorf("read inner html: %w", err)
		}
		cleaned, partNotes, err := r.clean(inner)
		notes = append(notes, partNotes...)
		if err != nil {
			return "", notes, fmt.Errorf("clean html (%s): %w", r.cleaner.Name(), err)
		}
		parts = append(parts, cleaned)
	}
	// The cleaner chain has already stripped scripts and handlers.
	return template.HTML(strings.Join(parts, "<br><br>")), notes, nil
}

// statsCleaner is a cleaner stage that reports what it did.
type statsCleaner interface {
	CleanWithStats(fragment string) *sanitize.Result
}

// clean runs the cleaner, stage by stage for a chain. Stages that report
// stats are logged at debug level and their warnings returned as notes.
func (r *Renderer) clean(fragment string) (string, []error, error) {
	stages := []cleaner.Cleaner{r.cleaner}
	if chain, ok := r.cleaner.(*cleaner.ChainCleaner); ok {
		stages = chain.Cleaners()
	}

	log := logger.Component("render")
	var notes []error
	for _, stage := range stages {
		sc, ok := stage.(statsCleaner)
		if !ok {
			out, err := stage.Clean(fragment)
			if err != nil {
				return "", notes, err
			}
			fragment = out
			continue
		}

		res := sc.CleanWithStats(fragment)
		if res.Stats != nil {
			log.Debug("cleaned message html", "cleaner", stage.Name(), "stats", res.Stats.String())
		}
		for _, w := range res.Warnings {
			notes = append(notes, fmt.Errorf("%s: %s", stage.Name(), w))
		}
		fragment = res.Content
	}
	return fragment, notes, nil
}

// escapedText renders plain text as HTML with line breaks kept.
func escapedText(s string) template.HTML {
	return template.HTML(strings.ReplaceAll(html.EscapeString(s), "\n", "<br>"))
}
