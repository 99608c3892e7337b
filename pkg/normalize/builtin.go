package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jmylchreest/chatxport/pkg/page"
	"golang.org/x/net/html"
)

// Builtin is the rule-per-tag converter.
type Builtin struct{}

// NewBuiltin creates the builtin normalizer.
func NewBuiltin() *Builtin { return &Builtin{} }

// Name implements Normalizer.
func (b *Builtin) Name() string { return string(KindBuiltin) }

// Normalize implements Normalizer.
func (b *Builtin) Normalize(el *page.Element, form Form) (string, error) {
	if el == nil {
		return "", ErrNilElement
	}
	c := converter{form: form}
	if u, err := url.Parse(el.Page().URL()); err == nil && u.IsAbs() {
		c.base = u
	}
	return Collapse(c.node(el.Node())), nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "aside": true, "nav": true, "figure": true,
	"figcaption": true, "details": true, "summary": true, "dl": true, "dt": true,
	"dd": true, "address": true, "fieldset": true, "form": true, "li": true,
	"caption": true,
}

var dropTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "button": true, "head": true, "title": true, "iframe": true,
}

var (
	langClass = regexp.MustCompile(`(?:language-|lang-)([a-zA-Z0-9]+)`)
	spaceRun  = regexp.MustCompile(`\s+`)
)

type converter struct {
	form Form
	base *url.URL
}

func (c converter) markdown() bool { return c.form == Markdown }

func (c converter) node(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return " "
		}
		return n.Data
	case html.ElementNode:
		return c.element(n)
	case html.DocumentNode:
		return c.children(n)
	default:
		return ""
	}
}

func (c converter) children(n *html.Node) string {
	var sb strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		sb.WriteString(c.node(ch))
	}
	return sb.String()
}

func (c converter) element(n *html.Node) string {
	tag := strings.ToLower(n.Data)
	if dropTags[tag] {
		return ""
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return c.heading(n, int(tag[1]-'0'))
	case "strong", "b":
		return c.inline(n, "**")
	case "em", "i":
		return c.inline(n, "*")
	case "code":
		return c.inlineCode(n)
	case "pre":
		return c.codeBlock(n)
	case "ul":
		return c.list(n, false)
	case "ol":
		return c.list(n, true)
	case "blockquote":
		return c.blockquote(n)
	case "a":
		return c.link(n)
	case "table":
		return c.table(n)
	case "br":
		return "\n"
	case "hr":
		return "\n\n---\n\n"
	case "img":
		return c.image(n)
	case "input":
		return checkboxMarker(n)
	}

	inner := c.children(n)
	if blockTags[tag] {
		return block(inner)
	}
	return inner
}

// block sets content apart with blank lines.
func block(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "\n\n" + s + "\n\n"
}

func (c converter) heading(n *html.Node, level int) string {
	text := spaceRun.ReplaceAllString(strings.TrimSpace(c.children(n)), " ")
	if text == "" {
		return ""
	}
	if !c.markdown() {
		return block(text)
	}
	return block(strings.Repeat("#", level) + " " + text)
}

// inline wraps converted children in marker, keeping surrounding spaces
// outside the marker.
func (c converter) inline(n *html.Node, marker string) string {
	inner := c.children(n)
	core := strings.TrimSpace(inner)
	if !c.markdown() || core == "" {
		return inner
	}
	lead := inner[:len(inner)-len(strings.TrimLeft(inner, " \t\n"))]
	trail := inner[len(strings.TrimRight(inner, " \t\n")):]
	return lead + marker + core + marker + trail
}

func (c converter) inlineCode(n *html.Node) string {
	text := textContent(n)
	if text == "" || !c.markdown() || insidePre(n) {
		return text
	}
	if strings.Contains(text, "`") {
		return "`` " + text + " ``"
	}
	return "`" + text + "`"
}

func (c converter) codeBlock(n *html.Node) string {
	src := n
	if code := selection(n).Find("code").First(); code.Length() > 0 {
		src = code.Get(0)
	}
	text := strings.TrimSuffix(preText(src), "\n")

	if !c.markdown() {
		if strings.TrimSpace(text) == "" {
			return ""
		}
		return "\n\n" + text + "\n\n"
	}

	lang := sniffLanguage(attr(src, "class"))
	if lang == "" {
		lang = sniffLanguage(attr(n, "class"))
	}
	fence := fenceFor(text)
	return "\n\n" + fence + lang + "\n" + text + "\n" + fence + "\n\n"
}

// preText returns the raw text under n with <br> as a newline.
func preText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && strings.EqualFold(n.Data, "br"):
			sb.WriteByte('\n')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}

// sniffLanguage pulls the language name out of a language-*/lang-* class.
func sniffLanguage(class string) string {
	if m := langClass.FindStringSubmatch(class); m != nil {
		return m[1]
	}
	return ""
}

// fenceFor returns a backtick fence longer than any run inside text.
func fenceFor(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

func (c converter) blockquote(n *html.Node) string {
	inner := Collapse(c.children(n))
	if inner == "" {
		return ""
	}
	lines := strings.Split(inner, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return block(strings.Join(lines, "\n"))
}

func (c converter) link(n *html.Node) string {
	inner := c.children(n)
	text := strings.TrimSpace(inner)
	if text == "" {
		return ""
	}

	href := c.resolve(strings.TrimSpace(attr(n, "href")))
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return inner
	}

	lead := inner[:len(inner)-len(strings.TrimLeft(inner, " \t\n"))]
	trail := inner[len(strings.TrimRight(inner, " \t\n")):]
	if !c.markdown() {
		if text == href {
			return lead + text + trail
		}
		return lead + text + " (" + href + ")" + trail
	}
	return lead + "[" + text + "](" + href + ")" + trail
}

func (c converter) image(n *html.Node) string {
	alt := strings.TrimSpace(attr(n, "alt"))
	src := strings.TrimSpace(attr(n, "src"))
	if !c.markdown() || src == "" || strings.HasPrefix(src, "data:") {
		return alt
	}
	return "![" + alt + "](" + c.resolve(src) + ")"
}

// resolve makes a relative reference absolute against the page URL.
func (c converter) resolve(ref string) string {
	if c.base == nil || ref == "" || strings.HasPrefix(ref, "#") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

func checkboxMarker(n *html.Node) string {
	if !strings.EqualFold(attr(n, "type"), "checkbox") {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == "checked" {
			return "[x] "
		}
	}
	return "[ ] "
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func insidePre(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.EqualFold(p.Data, "pre") {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	return selection(n).Text()
}

func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}
