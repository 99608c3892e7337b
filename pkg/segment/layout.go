package segment

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/jmylchreest/chatxport/pkg/page"
)

// Group is a run of blocks judged to form one visual turn.
type Group struct {
	Speaker  Speaker
	Elements []*page.Element
}

// LayoutGrouper is the last-resort strategy: it ignores markup entirely and
// groups visible blocks by vertical proximity.
type LayoutGrouper struct {
	BlockSelector string
	MinHeight     float64
	MinWidth      float64
	MinChars      int
	Gap           float64
}

// Blocks returns the visible blocks of the main container sorted by top
// edge. A block that contains other qualifying blocks gives way to them
// unless it holds more than MinChars of text of its own, in which case it
// is kept whole and its inner blocks are dropped. Either way no text is
// collected twice.
func (g LayoutGrouper) Blocks(main *page.Element) []*page.Element {
	var candidates []*page.Element
	isCandidate := make(map[*html.Node]bool)
	for _, el := range main.Find(g.BlockSelector) {
		box := el.Box()
		if box.Height > g.MinHeight && box.Width > g.MinWidth && textLen(el) > g.MinChars {
			candidates = append(candidates, el)
			isCandidate[el.Node()] = true
		}
	}

	var blocks, kept []*page.Element
	for i, el := range candidates {
		if containedBy(kept, el) {
			continue
		}
		wrapper := false
		for _, other := range candidates[i+1:] {
			if el.Contains(other) {
				wrapper = true
				break
			}
		}
		if wrapper && ownTextLen(el.Node(), isCandidate) <= g.MinChars {
			continue
		}
		blocks = append(blocks, el)
		if wrapper {
			kept = append(kept, el)
		}
	}

	// Find returns document order, so a stable sort keeps DOM order on ties.
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Box().Top < blocks[j].Box().Top
	})
	return blocks
}

func containedBy(wrappers []*page.Element, el *page.Element) bool {
	for _, w := range wrappers {
		if w.Contains(el) {
			return true
		}
	}
	return false
}

// ownTextLen counts the non-blank text under n that sits outside any
// nested candidate block.
func ownTextLen(n *html.Node, skip map[*html.Node]bool) int {
	total := 0
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case skip[ch]:
		case ch.Type == html.ElementNode && (ch.Data == "script" || ch.Data == "style"):
		case ch.Type == html.TextNode:
			total += utf8.RuneCountInString(strings.Join(strings.Fields(ch.Data), " "))
		default:
			total += ownTextLen(ch, skip)
		}
	}
	return total
}

// Group splits sorted blocks into turns. A gap larger than Gap between the
// previous block's bottom and the next block's top starts a new group.
func (g LayoutGrouper) Group(blocks []*page.Element, viewportWidth float64) []Group {
	var groups []Group
	lastBottom := -1000.0
	for _, el := range blocks {
		box := el.Box()
		if len(groups) == 0 || box.Top-lastBottom > g.Gap {
			groups = append(groups, Group{})
		}
		cur := &groups[len(groups)-1]
		cur.Elements = append(cur.Elements, el)
		lastBottom = box.Bottom()
	}

	for i := range groups {
		groups[i].Speaker = groupSpeaker(groups[i].Elements[0], i, viewportWidth)
	}
	return groups
}

// groupSpeaker guesses who wrote a group. Right-aligned or user-classed
// groups are human; otherwise even-indexed groups are assumed human, which
// is only a best-effort alternation guess.
func groupSpeaker(first *page.Element, index int, viewportWidth float64) Speaker {
	if first.Box().Left > viewportWidth/2 ||
		strings.Contains(first.ClassName(), "user") ||
		index%2 == 0 {
		return Human
	}
	return Assistant
}
