package sanitize

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Cleaner strips presentation attributes, empty shells and redundant
// whitespace from an HTML fragment. It implements cleaner.Cleaner.
type Cleaner struct {
	config     *Config
	attrDouble *regexp.Regexp
	attrSingle *regexp.Regexp
}

// New creates a Cleaner with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	c := &Cleaner{config: config}
	if names := config.attributeNames(); len(names) > 0 {
		group := `(?:` + strings.Join(names, "|") + `)`
		c.attrDouble = regexp.MustCompile(`(?i)\s+` + group + `="[^"]*"`)
		c.attrSingle = regexp.MustCompile(`(?i)\s+` + group + `='[^']*'`)
	}
	return c
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "sanitize"
}

// Clean sanitizes an HTML fragment. Problems degrade the output rather than
// failing, so the error is always nil.
func (c *Cleaner) Clean(fragment string) (string, error) {
	return c.CleanWithStats(fragment).Content, nil
}

// Elements that may legitimately be empty.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
	// Cells keep table rows aligned.
	"td": true, "th": true,
}

var (
	// whitespaceRegex matches runs of whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// commentRegex matches HTML comments.
	commentRegex = regexp.MustCompile(`<!--[\s\S]*?-->`)
)

// CleanWithStats sanitizes and reports what was done.
func (c *Cleaner) CleanWithStats(fragment string) *Result {
	startTime := time.Now()
	result := &Result{Stats: NewStats()}
	result.Stats.InputBytes = len(fragment)
	defer func() {
		result.Stats.OutputBytes = len(result.Content)
		result.Stats.TotalDuration = time.Since(startTime)
	}()

	// 1. Attribute patterns run on the markup itself.
	out := c.stripAttributes(fragment, result)
	if c.config.StripComments {
		result.Stats.CommentsRemoved = len(commentRegex.FindAllStringIndex(out, -1))
		out = commentRegex.ReplaceAllString(out, "")
	}

	if !c.config.StripEmptyElements && !c.config.CollapseWhitespace {
		result.Content = c.trim(out)
		return result
	}

	// 2. Structural passes need a tree.
	parseStart := time.Now()
	container, err := parseFragment(out)
	result.Stats.ParseDuration = time.Since(parseStart)
	if err != nil {
		result.AddWarning("parse", "HTML parse failed, returning attribute-stripped input", err.Error())
		result.Content = c.trim(out)
		return result
	}

	transformStart := time.Now()
	doc := goquery.NewDocumentFromNode(container)
	if c.config.StripEmptyElements {
		c.removeEmptyElements(doc, result)
	}
	if c.config.CollapseWhitespace {
		collapseText(container)
	}
	result.Stats.TransformDuration = time.Since(transformStart)

	rendered, err := doc.Html()
	if err != nil {
		result.AddWarning("output", "HTML render failed, returning attribute-stripped input", err.Error())
		result.Content = c.trim(out)
		return result
	}
	result.Content = c.trim(rendered)
	return result
}

func (c *Cleaner) stripAttributes(s string, result *Result) string {
	if c.attrDouble == nil {
		return s
	}
	result.Stats.AttributesRemoved += len(c.attrDouble.FindAllStringIndex(s, -1))
	s = c.attrDouble.ReplaceAllString(s, "")
	result.Stats.AttributesRemoved += len(c.attrSingle.FindAllStringIndex(s, -1))
	return c.attrSingle.ReplaceAllString(s, "")
}

// removeEmptyElements removes, in a single pass, elements that have no
// element children and only whitespace text.
func (c *Cleaner) removeEmptyElements(doc *goquery.Document, result *Result) {
	var empty []*goquery.Selection
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if voidElements[goquery.NodeName(s)] {
			return
		}
		if s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == "" {
			empty = append(empty, s)
		}
	})

	for _, s := range empty {
		result.Stats.EmptyElementRemovals++
		result.Stats.RecordRemoval(goquery.NodeName(s))
		s.Remove()
	}
}

func (c *Cleaner) trim(s string) string {
	if c.config.TrimElements {
		return strings.TrimSpace(s)
	}
	return s
}

// parseFragment parses markup in a <body> context and hangs the result
// under a detached <div>.
func parseFragment(s string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, err
	}
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

// collapseText folds whitespace runs in text nodes, leaving pre and
// textarea content untouched.
func collapseText(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			c.Data = whitespaceRegex.ReplaceAllString(c.Data, " ")
		case html.ElementNode:
			if c.DataAtom == atom.Pre || c.DataAtom == atom.Textarea {
				continue
			}
			collapseText(c)
		}
	}
}
