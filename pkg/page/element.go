package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element is a handle to one element of a Page. Handles are cheap; two
// handles refer to the same element when Same reports true.
type Element struct {
	page *Page
	node *html.Node
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// Page returns the page the element belongs to.
func (e *Element) Page() *Page { return e.page }

// selection returns a goquery selection rooted at the element.
func (e *Element) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.node).Selection
}

// Same reports whether both handles point at the same element.
func (e *Element) Same(other *Element) bool {
	return e != nil && other != nil && e.node == other.node
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return strings.ToLower(e.node.Data) }

// Attr returns the value of an attribute and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or fallback when absent.
func (e *Element) AttrOr(name, fallback string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return fallback
}

// ClassName returns the raw class attribute.
func (e *Element) ClassName() string {
	return e.AttrOr("class", "")
}

// Box returns the element's captured bounding box. Elements without a
// snapshot stamp report a zero Rect.
func (e *Element) Box() Rect {
	return e.page.boxes[e.node]
}

// Is reports whether the element matches a CSS selector. An invalid
// selector matches nothing.
func (e *Element) Is(selector string) bool {
	return e.selection().Is(selector)
}

// Find returns every descendant matching selector, in document order.
func (e *Element) Find(selector string) []*Element {
	return e.wrapAll(e.selection().Find(selector).Nodes)
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	if other == nil {
		return false
	}
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// Text returns the visible text of the element, approximating the
// browser's innerText: hidden and script content is skipped, whitespace is
// collapsed outside <pre>, and block boundaries become line breaks.
func (e *Element) Text() string {
	return visibleText(e.node)
}

// InnerHTML serializes the element's children.
func (e *Element) InnerHTML() (string, error) {
	var sb strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// OuterHTML serializes the element itself.
func (e *Element) OuterHTML() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, e.node); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Clone returns a deep copy of the element detached from its page. The
// copy keeps its snapshot stamps, so its geometry survives, but it has no
// parent and changes to it never reach the source page.
func (e *Element) Clone() *Element {
	n := cloneNode(e.node)
	p := &Page{
		doc:      goquery.NewDocumentFromNode(n),
		url:      e.page.url,
		viewport: e.page.viewport,
		boxes:    make(map[*html.Node]Rect),
	}
	indexBoxes(n, p.boxes)
	return p.wrap(n)
}

func (e *Element) wrapAll(nodes []*html.Node) []*Element {
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, e.page.wrap(n))
	}
	return out
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(cloneNode(ch))
	}
	return c
}
