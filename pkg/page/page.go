// Package page models a rendered web page as the export engine sees it:
// a parsed DOM tree plus the layout geometry captured when the page was
// snapshotted.
//
// Geometry travels inside the HTML itself. A snapshot stamps every element
// with a data-xport-box="top,left,width,height" attribute and the root
// <html> element with data-xport-viewport and data-xport-url. Pages loaded
// from plain HTML have no stamps; their elements report a zero Rect.
package page

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot stamp attributes.
const (
	BoxAttr      = "data-xport-box"
	ViewportAttr = "data-xport-viewport"
	URLAttr      = "data-xport-url"
)

// DefaultViewportWidth is assumed when a page carries no viewport stamp.
const DefaultViewportWidth = 1280

// Options controls how a page is loaded.
type Options struct {
	// URL overrides the data-xport-url stamp.
	URL string
	// ViewportWidth overrides the data-xport-viewport stamp.
	ViewportWidth float64
}

// Page is a parsed document with its layout geometry. It is read-only:
// nothing in the engine mutates a Page after Load.
type Page struct {
	doc      *goquery.Document
	url      string
	viewport float64
	boxes    map[*html.Node]Rect
}

// Load parses an HTML document.
func Load(src string, opts Options) (*Page, error) {
	return FromReader(strings.NewReader(src), opts)
}

// FromReader parses an HTML document from r.
func FromReader(r io.Reader, opts Options) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return FromDocument(doc, opts), nil
}

// FromDocument wraps an already parsed goquery document.
func FromDocument(doc *goquery.Document, opts Options) *Page {
	p := &Page{
		doc:   doc,
		boxes: make(map[*html.Node]Rect),
	}

	root := doc.Find("html").First()
	if opts.URL != "" {
		p.url = opts.URL
	} else if u, ok := root.Attr(URLAttr); ok {
		p.url = strings.TrimSpace(u)
	}

	p.viewport = opts.ViewportWidth
	if p.viewport <= 0 {
		if v, ok := root.Attr(ViewportAttr); ok {
			if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && w > 0 {
				p.viewport = w
			}
		}
	}
	if p.viewport <= 0 {
		p.viewport = DefaultViewportWidth
	}

	for _, n := range doc.Nodes {
		indexBoxes(n, p.boxes)
	}
	return p
}

// indexBoxes records the stamped geometry of n and its descendants.
func indexBoxes(n *html.Node, boxes map[*html.Node]Rect) {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key != BoxAttr {
				continue
			}
			if r, err := ParseRect(a.Val); err == nil {
				boxes[n] = r
			}
			break
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		indexBoxes(c, boxes)
	}
}

// URL returns the address the page was captured from, if known.
func (p *Page) URL() string { return p.url }

// ViewportWidth returns the width of the viewport at capture time.
func (p *Page) ViewportWidth() float64 { return p.viewport }

// HasLayout reports whether any element carries captured geometry.
func (p *Page) HasLayout() bool { return len(p.boxes) > 0 }

// Title returns the trimmed <title> text.
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Root returns the <html> element, or the first element of the document
// when the source was a fragment.
func (p *Page) Root() *Element {
	if root := p.doc.Find("html").First(); root.Length() > 0 {
		return p.wrap(root.Nodes[0])
	}
	for _, n := range p.doc.Nodes {
		if el := firstElement(n); el != nil {
			return p.wrap(el)
		}
	}
	return nil
}

// Body returns the <body> element, or nil.
func (p *Page) Body() *Element {
	if body := p.doc.Find("body").First(); body.Length() > 0 {
		return p.wrap(body.Nodes[0])
	}
	return nil
}

// Wrap returns the Element handle for a node of this page.
func (p *Page) Wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return p.wrap(n)
}

func (p *Page) wrap(n *html.Node) *Element {
	return &Element{page: p, node: n}
}

func firstElement(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if el := firstElement(c); el != nil {
			return el
		}
	}
	return nil
}
