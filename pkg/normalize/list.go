package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	checkboxPrefix = regexp.MustCompile(`(?i)^[\[(][\s\x{00A0}]*[x✓✔]?[\s\x{00A0}]*[\])]`)
	checkboxStrip  = regexp.MustCompile(`(?i)^[\[(][\s\x{00A0}]*[x✓✔]?[\s\x{00A0}]*[\])][\s\x{00A0}]*`)
	checkedMark    = regexp.MustCompile(`(?i)[x✓✔]`)
)

// list renders the direct <li> children of a list. A list without items
// degrades to the text of its children.
func (c converter) list(n *html.Node, ordered bool) string {
	var items []*html.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && strings.EqualFold(ch.Data, "li") {
			items = append(items, ch)
		}
	}
	if len(items) == 0 {
		return block(c.children(n))
	}

	start := 1
	if ordered {
		if v, err := strconv.Atoi(strings.TrimSpace(attr(n, "start"))); err == nil {
			start = v
		}
	}

	var lines []string
	for i, li := range items {
		text := strings.TrimSpace(c.children(li))
		if text == "" {
			continue
		}

		var marker string
		if ordered {
			marker = strconv.Itoa(start+i) + ". "
		} else {
			marker = "- "
			text = checkboxItem(text)
		}
		lines = append(lines, marker+indentContinuation(text, len(marker)))
	}
	return block(strings.Join(lines, "\n"))
}

// checkboxItem rewrites a leading [x], [ ], (✓) style marker into a task
// list marker. Other text is returned unchanged.
func checkboxItem(text string) string {
	m := checkboxPrefix.FindString(text)
	if m == "" {
		return text
	}
	rest := strings.TrimSpace(checkboxStrip.ReplaceAllString(text, ""))
	if checkedMark.MatchString(m) {
		return "[x] " + rest
	}
	return "[ ] " + rest
}

// indentContinuation indents every line after the first so nested content
// stays under its bullet. Blank lines are dropped except inside code fences.
func indentContinuation(text string, width int) string {
	lines := strings.Split(text, "\n")
	out := lines[:1]
	pad := strings.Repeat(" ", width)
	fence := ""
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if fence != "" {
				out = append(out, "")
			}
			continue
		}
		if run := backtickRun(trimmed); run != "" {
			switch {
			case fence == "":
				fence = run
			case trimmed == run && len(run) >= len(fence):
				fence = ""
			}
		}
		out = append(out, pad+line)
	}
	return strings.Join(out, "\n")
}

// backtickRun returns the leading run of backticks when it is long enough
// to open or close a fence.
func backtickRun(line string) string {
	n := len(line) - len(strings.TrimLeft(line, "`"))
	if n < 3 {
		return ""
	}
	return line[:n]
}
