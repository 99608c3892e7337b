package page

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is an element's rendered bounding box in CSS pixels, relative to the
// top-left corner of the document.
type Rect struct {
	Top    float64 `json:"top" yaml:"top"`
	Left   float64 `json:"left" yaml:"left"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Right returns the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// IsZero reports whether the rect carries no geometry.
func (r Rect) IsZero() bool { return r == Rect{} }

// String formats the rect in the stamp format accepted by ParseRect.
func (r Rect) String() string {
	return strings.Join([]string{
		formatPx(r.Top), formatPx(r.Left), formatPx(r.Width), formatPx(r.Height),
	}, ",")
}

// ParseRect parses a "top,left,width,height" stamp.
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("invalid box %q: want top,left,width,height", s)
	}

	var vals [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Rect{}, fmt.Errorf("invalid box %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] < 0 || vals[3] < 0 {
		return Rect{}, fmt.Errorf("invalid box %q: negative size", s)
	}
	return Rect{Top: vals[0], Left: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
