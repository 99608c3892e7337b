package segment

import (
	"github.com/jmylchreest/chatxport/pkg/page"
)

// Scope is what a detector searches.
type Scope struct {
	// Root is the page root handed to Segment.
	Root *page.Element
	// Main is the main content container.
	Main *page.Element
	// Claimed holds elements already assigned to a speaker.
	Claimed []*page.Element
}

func (s Scope) claimed(el *page.Element) bool {
	for _, c := range s.Claimed {
		if c.Same(el) {
			return true
		}
	}
	return false
}

// Detector finds candidate message elements. A nil or empty result means
// the detector found nothing and the next one should be tried.
type Detector interface {
	Name() string
	Detect(scope Scope) []*page.Element
}

// SelectorCascade tries selectors in order and returns the first non-empty
// match set.
type SelectorCascade struct {
	Label     string
	Selectors []string
}

// Name implements Detector.
func (d SelectorCascade) Name() string { return d.Label }

// Detect implements Detector.
func (d SelectorCascade) Detect(scope Scope) []*page.Element {
	for _, sel := range d.Selectors {
		if found := scope.Root.Find(sel); len(found) > 0 {
			return found
		}
	}
	return nil
}

// ContentHeuristic accepts block elements of the main container that carry
// enough text and are tall enough, skipping claimed elements. It favours
// recall over precision.
type ContentHeuristic struct {
	BlockSelector string
	MinChars      int
	MinHeight     float64
}

// Name implements Detector.
func (d ContentHeuristic) Name() string { return "content" }

// Detect implements Detector.
func (d ContentHeuristic) Detect(scope Scope) []*page.Element {
	var out []*page.Element
	for _, el := range scope.Main.Find(d.BlockSelector) {
		if scope.claimed(el) {
			continue
		}
		if textLen(el) >= d.MinChars && el.Box().Height >= d.MinHeight {
			out = append(out, el)
		}
	}
	return out
}

// textLen counts runes of the trimmed visible text.
func textLen(el *page.Element) int {
	return len([]rune(el.Text()))
}

// firstNonEmpty runs detectors in order and returns the first non-empty
// result along with the name of the detector that produced it.
func firstNonEmpty(scope Scope, detectors ...Detector) ([]*page.Element, string) {
	for _, d := range detectors {
		if found := d.Detect(scope); len(found) > 0 {
			return found, d.Name()
		}
	}
	return nil, ""
}
