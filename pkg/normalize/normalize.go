// Package normalize converts a message's HTML subtree into Markdown or
// plain text.
//
// Conversion never mutates its input: every rule returns a new string built
// from the subtree below it.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmylchreest/chatxport/pkg/page"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Form is the target text form.
type Form int

const (
	Markdown Form = iota
	PlainText
)

func (f Form) String() string {
	if f == PlainText {
		return "text"
	}
	return "markdown"
}

// ErrNilElement is returned when there is nothing to normalize.
var ErrNilElement = errors.New("normalize: nil element")

// Normalizer converts an element subtree to text.
type Normalizer interface {
	Normalize(el *page.Element, form Form) (string, error)
	Name() string
}

// Kind selects a Normalizer implementation by name.
type Kind string

const (
	KindBuiltin Kind = "builtin"
	KindLibrary Kind = "library"
)

// New returns the Normalizer for kind.
func New(kind Kind) (Normalizer, error) {
	switch kind {
	case KindBuiltin, "":
		return NewBuiltin(), nil
	case KindLibrary:
		return NewLibrary(), nil
	default:
		return nil, fmt.Errorf("unknown normalizer %q (expected builtin or library)", kind)
	}
}

var blankRun = regexp.MustCompile(`\n\s*\n\s*\n`)

// Collapse squeezes three or more consecutive newlines, including lines
// holding only whitespace, down to one blank line and trims the result.
func Collapse(s string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(s, "\n\n"))
}

// NormalizeHTML parses an HTML fragment and converts it with the builtin
// rules. A fragment without tags comes back unchanged apart from Collapse.
func NormalizeHTML(fragment string, form Form) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	c := converter{form: form}
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(c.node(n))
	}
	return Collapse(sb.String()), nil
}
