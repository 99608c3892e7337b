package sanitize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats captures what the sanitizer did.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	AttributesRemoved    int            `json:"attributes_removed"`
	CommentsRemoved      int            `json:"comments_removed"`
	EmptyElementRemovals int            `json:"empty_element_removals"`
	ElementsRemoved      map[string]int `json:"elements_removed"` // tag -> count

	ParseDuration     time.Duration `json:"parse_duration_ms"`
	TransformDuration time.Duration `json:"transform_duration_ms"`
	TotalDuration     time.Duration `json:"total_duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved: make(map[string]int),
	}
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// RecordRemoval records that an element was removed.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Size: %s -> %s (%.1f%% reduction)\n",
		humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)), s.ReductionPercent())
	fmt.Fprintf(&sb, "Attributes removed: %d\n", s.AttributesRemoved)

	if s.CommentsRemoved > 0 {
		fmt.Fprintf(&sb, "Comments removed: %d\n", s.CommentsRemoved)
	}

	if len(s.ElementsRemoved) > 0 {
		tags := make([]string, 0, len(s.ElementsRemoved))
		for tag := range s.ElementsRemoved {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		parts := make([]string, 0, len(tags))
		for _, tag := range tags {
			parts = append(parts, fmt.Sprintf("%s=%d", tag, s.ElementsRemoved[tag]))
		}
		fmt.Fprintf(&sb, "Empty elements removed: %s\n", strings.Join(parts, ", "))
	}

	fmt.Fprintf(&sb, "Timing: parse=%v, transform=%v, total=%v\n",
		s.ParseDuration.Round(time.Microsecond),
		s.TransformDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond))

	return sb.String()
}

// Warning represents a non-fatal issue encountered during sanitizing.
type Warning struct {
	Phase   string `json:"phase"`   // "parse", "transform", "output"
	Message string `json:"message"` // Human-readable description
	Context string `json:"context"` // Error or element that caused the issue
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a sanitize operation.
type Result struct {
	// Content is the sanitized output. On parse or render errors it holds
	// the attribute-stripped input.
	Content string `json:"content"`

	Stats *Stats `json:"stats"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
