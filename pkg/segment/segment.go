// Package segment splits a conversation page into ordered human and
// assistant turns.
//
// Detection is a cascade: selector lists for each side, a content heuristic
// for the assistant side, and finally a pure layout fallback that groups
// visible blocks by vertical proximity. All geometry and text reads happen
// before any element is cloned into a Message.
package segment

import (
	"errors"
	"sort"
	"strings"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/pkg/page"
	"golang.org/x/net/html"
)

// ErrNoMessagesFound is returned when every strategy, including the layout
// fallback, found nothing.
var ErrNoMessagesFound = errors.New("unable to detect conversation")

// Speaker identifies who wrote a turn.
type Speaker int

const (
	Human Speaker = iota
	Assistant
)

func (s Speaker) String() string {
	if s == Human {
		return "Human"
	}
	return "Assistant"
}

// Strategy names the path that produced a message set.
type Strategy string

const (
	StrategySelectors        Strategy = "selectors"
	StrategySelectorsContent Strategy = "selectors+content"
	StrategyLayout           Strategy = "layout"
)

// Message is one turn. Parts holds detached clones of the elements that
// make up the turn: one on the selector paths, the group members on the
// layout path. Box is the first element's geometry at detection time.
type Message struct {
	Speaker Speaker
	Parts   []*page.Element
	Order   int
	Box     page.Rect
}

// Result is the outcome of segmentation.
type Result struct {
	Messages []Message
	Strategy Strategy
}

// Segmenter runs the detector cascade.
type Segmenter struct {
	cfg       Config
	human     []Detector
	assistant []Detector
	layout    LayoutGrouper
}

// New creates a Segmenter after validating cfg.
func New(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{
		cfg: cfg,
		human: []Detector{
			SelectorCascade{Label: "human-selectors", Selectors: cfg.HumanSelectors},
		},
		assistant: []Detector{
			SelectorCascade{Label: "assistant-selectors", Selectors: cfg.AssistantSelectors},
			ContentHeuristic{
				BlockSelector: cfg.BlockSelector,
				MinChars:      cfg.MinContentChars,
				MinHeight:     cfg.MinContentHeight,
			},
		},
		layout: LayoutGrouper{
			BlockSelector: cfg.BlockSelector,
			MinHeight:     cfg.LayoutMinHeight,
			MinWidth:      cfg.LayoutMinWidth,
			MinChars:      cfg.LayoutMinChars,
			Gap:           cfg.GroupGap,
		},
	}, nil
}

// Default returns a Segmenter using DefaultConfig.
func Default() *Segmenter {
	s, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// Config returns the configuration in use.
func (s *Segmenter) Config() Config { return s.cfg }

// Segment detects the conversation under root.
func (s *Segmenter) Segment(root *page.Element) (*Result, error) {
	log := logger.Component("segment")
	if root == nil {
		return nil, ErrNoMessagesFound
	}

	scope := Scope{Root: root, Main: s.mainContainer(root)}

	human, humanBy := firstNonEmpty(scope, s.human...)
	scope.Claimed = human
	assistant, assistantBy := firstNonEmpty(scope, s.assistant...)

	log.Debug("selector detection",
		"human", len(human), "human_by", humanBy,
		"assistant", len(assistant), "assistant_by", assistantBy)

	if len(human) > 0 && len(assistant) > 0 {
		strategy := StrategySelectors
		if assistantBy == "content" {
			strategy = StrategySelectorsContent
		}
		return &Result{
			Messages: s.combine(root, human, assistant),
			Strategy: strategy,
		}, nil
	}

	blocks := s.layout.Blocks(scope.Main)
	groups := s.layout.Group(blocks, root.Page().ViewportWidth())
	log.Debug("layout fallback", "blocks", len(blocks), "groups", len(groups),
		"has_layout", root.Page().HasLayout())
	if len(groups) == 0 {
		return nil, ErrNoMessagesFound
	}

	messages := make([]Message, 0, len(groups))
	for i, g := range groups {
		messages = append(messages, Message{
			Speaker: g.Speaker,
			Parts:   cloneAll(g.Elements),
			Order:   i,
			Box:     g.Elements[0].Box(),
		})
	}
	return &Result{Messages: messages, Strategy: StrategyLayout}, nil
}

func (s *Segmenter) mainContainer(root *page.Element) *page.Element {
	for _, sel := range s.cfg.MainSelectors {
		if root.Is(sel) {
			return root
		}
		if found := root.Find(sel); len(found) > 0 {
			return found[0]
		}
	}
	if body := root.Page().Body(); body != nil && root.Contains(body) {
		return body
	}
	return root
}

type candidate struct {
	el      *page.Element
	speaker Speaker
	box     page.Rect
	pos     int
}

// combine labels both sets by membership and orders them by top edge, ties
// in document order. An element in both sets counts once, as human, and an
// assistant match that carries a user hint is relabelled human.
func (s *Segmenter) combine(root *page.Element, human, assistant []*page.Element) []Message {
	positions := documentOrder(root.Node())

	seen := make(map[*html.Node]bool, len(human)+len(assistant))
	var all []candidate
	add := func(els []*page.Element, sp Speaker) {
		for _, el := range els {
			if seen[el.Node()] {
				continue
			}
			seen[el.Node()] = true
			speaker := sp
			if speaker == Assistant && userHinted(el) {
				speaker = Human
			}
			all = append(all, candidate{el: el, speaker: speaker, box: el.Box(), pos: positions[el.Node()]})
		}
	}
	add(human, Human)
	add(assistant, Assistant)

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].box.Top != all[j].box.Top {
			return all[i].box.Top < all[j].box.Top
		}
		return all[i].pos < all[j].pos
	})

	messages := make([]Message, 0, len(all))
	for i, c := range all {
		messages = append(messages, Message{
			Speaker: c.speaker,
			Parts:   []*page.Element{c.el.Clone()},
			Order:   i,
			Box:     c.box,
		})
	}
	return messages
}

// userHinted reports whether markup marks el as the user's turn: a class
// containing "user" or data-testid="user-message".
func userHinted(el *page.Element) bool {
	return strings.Contains(el.ClassName(), "user") || el.AttrOr("data-testid", "") == "user-message"
}

func documentOrder(root *html.Node) map[*html.Node]int {
	positions := make(map[*html.Node]int)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			positions[n] = len(positions)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return positions
}

func cloneAll(els []*page.Element) []*page.Element {
	out := make([]*page.Element, len(els))
	for i, el := range els {
		out[i] = el.Clone()
	}
	return out
}
