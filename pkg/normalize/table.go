package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// table renders pipe-delimited rows. In Markdown a separator row follows
// the first emitted row. Rows of nested tables are not collected. A table
// without cells degrades to the text of its children.
func (c converter) table(n *html.Node) string {
	var rows [][]string
	for _, tr := range tableRows(n) {
		var cells []string
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if td.Type != html.ElementNode {
				continue
			}
			if tag := strings.ToLower(td.Data); tag == "td" || tag == "th" {
				cells = append(cells, c.cell(td))
			}
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	if len(rows) == 0 {
		return block(c.children(n))
	}

	lines := make([]string, 0, len(rows)+1)
	for i, cells := range rows {
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 && c.markdown() {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return block(strings.Join(lines, "\n"))
}

func (c converter) cell(n *html.Node) string {
	text := spaceRun.ReplaceAllString(strings.TrimSpace(c.children(n)), " ")
	return strings.ReplaceAll(text, "|", `\|`)
}

// tableRows returns the <tr> elements owned by table, looking through
// thead, tbody and tfoot.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			switch strings.ToLower(ch.Data) {
			case "tr":
				rows = append(rows, ch)
			case "thead", "tbody", "tfoot":
				walk(ch)
			}
		}
	}
	walk(table)
	return rows
}
