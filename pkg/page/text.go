package page

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`[ \t\n\r\f]+`)

// Elements whose content is never rendered.
var invisibleTags = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "title": true, "meta": true, "link": true,
}

// Elements that start and end on their own line. Paragraphs get a blank
// line around them.
var blockBreaks = map[string]int{
	"p":       2,
	"address": 1, "article": 1, "aside": 1, "blockquote": 1, "dd": 1,
	"details": 1, "dialog": 1, "div": 1, "dl": 1, "dt": 1, "fieldset": 1,
	"figcaption": 1, "figure": 1, "footer": 1, "form": 1, "h1": 1, "h2": 1,
	"h3": 1, "h4": 1, "h5": 1, "h6": 1, "header": 1, "hgroup": 1, "hr": 1,
	"li": 1, "main": 1, "nav": 1, "ol": 1, "pre": 1, "section": 1,
	"summary": 1, "table": 1, "tbody": 1, "tfoot": 1, "thead": 1, "tr": 1,
	"ul": 1, "caption": 1,
}

type textWriter struct {
	sb      strings.Builder
	breaks  int
	gap     string
	preDeep int
}

func visibleText(n *html.Node) string {
	w := &textWriter{}
	w.walk(n)

	lines := strings.Split(w.sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.DocumentNode:
		w.children(n)
		return
	case html.ElementNode:
	default:
		return
	}

	tag := strings.ToLower(n.Data)
	if invisibleTags[tag] || hasAttr(n, "hidden") {
		return
	}

	switch tag {
	case "br":
		w.flush()
		w.sb.WriteString("\n")
		w.gap = ""
		return
	case "td", "th":
		if prevElementSibling(n) != nil {
			w.gap = "\t"
		}
	}

	breaks := blockBreaks[tag]
	w.lineBreaks(breaks)
	if tag == "pre" {
		w.preDeep++
	}
	w.children(n)
	if tag == "pre" {
		w.preDeep--
	}
	w.lineBreaks(breaks)
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) lineBreaks(n int) {
	if n > w.breaks {
		w.breaks = n
	}
}

func (w *textWriter) text(s string) {
	if w.preDeep > 0 {
		if s != "" {
			w.flush()
			w.sb.WriteString(s)
		}
		return
	}

	collapsed := whitespaceRun.ReplaceAllString(s, " ")
	if collapsed == "" {
		return
	}
	core := strings.TrimSpace(collapsed)
	if core == "" {
		if w.gap == "" {
			w.gap = " "
		}
		return
	}
	if strings.HasPrefix(collapsed, " ") && w.gap == "" {
		w.gap = " "
	}
	w.flush()
	w.sb.WriteString(core)
	if strings.HasSuffix(collapsed, " ") {
		w.gap = " "
	}
}

// flush emits pending line breaks or the pending inline gap. Nothing is
// emitted before the first content.
func (w *textWriter) flush() {
	switch {
	case w.sb.Len() == 0:
	case w.breaks > 0:
		w.sb.WriteString(strings.Repeat("\n", w.breaks))
	case w.gap != "" && !strings.HasSuffix(w.sb.String(), "\n"):
		w.sb.WriteString(w.gap)
	}
	w.breaks = 0
	w.gap = ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func prevElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}
