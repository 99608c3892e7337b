package segment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/go-playground/validator/v10"
)

// Config holds the selector lists and thresholds used by the detectors.
type Config struct {
	// HumanSelectors are tried in order; the first non-empty match set
	// becomes the human message set.
	HumanSelectors []string `mapstructure:"human_selectors" json:"human_selectors" yaml:"human_selectors" validate:"min=1,dive,required"`

	// AssistantSelectors are tried in order like HumanSelectors.
	AssistantSelectors []string `mapstructure:"assistant_selectors" json:"assistant_selectors" yaml:"assistant_selectors" validate:"min=1,dive,required"`

	// MainSelectors locate the main content container. The body is used
	// when none match.
	MainSelectors []string `mapstructure:"main_selectors" json:"main_selectors" yaml:"main_selectors" validate:"dive,required"`

	// BlockSelector picks the block-level candidates for the content and
	// layout fallbacks.
	BlockSelector string `mapstructure:"block_selector" json:"block_selector" yaml:"block_selector" validate:"required"`

	// MinContentChars and MinContentHeight are the content fallback
	// thresholds. Elements exactly at a threshold are accepted.
	MinContentChars  int     `mapstructure:"min_content_chars" json:"min_content_chars" yaml:"min_content_chars" validate:"gte=0"`
	MinContentHeight float64 `mapstructure:"min_content_height" json:"min_content_height" yaml:"min_content_height" validate:"gte=0"`

	// Layout fallback block filter. A block must exceed all three.
	LayoutMinHeight float64 `mapstructure:"layout_min_height" json:"layout_min_height" yaml:"layout_min_height" validate:"gte=0"`
	LayoutMinWidth  float64 `mapstructure:"layout_min_width" json:"layout_min_width" yaml:"layout_min_width" validate:"gte=0"`
	LayoutMinChars  int     `mapstructure:"layout_min_chars" json:"layout_min_chars" yaml:"layout_min_chars" validate:"gte=0"`

	// GroupGap is the largest vertical gap, in pixels, between two blocks
	// of the same turn.
	GroupGap float64 `mapstructure:"group_gap" json:"group_gap" yaml:"group_gap" validate:"gte=0"`
}

// DefaultConfig returns the selector lists and thresholds tuned for
// claude.ai conversation pages.
func DefaultConfig() Config {
	return Config{
		HumanSelectors: []string{
			`[data-testid="user-message"]`,
			`[data-message-author-role="user"]`,
			`[class*="user-message"]`,
		},
		AssistantSelectors: []string{
			`[data-testid="assistant-message"]`,
			`[data-message-author-role="assistant"]`,
			`[class*="assistant-message"]`,
			`[class*="claude-message"]`,
			`[class*="bot-message"]`,
		},
		MainSelectors:    []string{"main"},
		BlockSelector:    "div, article, section",
		MinContentChars:  100,
		MinContentHeight: 50,
		LayoutMinHeight:  20,
		LayoutMinWidth:   100,
		LayoutMinChars:   20,
		GroupGap:         30,
	}
}

var validate = validator.New()

// Validate checks field constraints and that every selector compiles.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid segment config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid segment config: %w", err)
	}

	lists := [][]string{c.HumanSelectors, c.AssistantSelectors, c.MainSelectors, {c.BlockSelector}}
	for _, list := range lists {
		for _, sel := range list {
			if _, err := cascadia.Compile(sel); err != nil {
				return fmt.Errorf("invalid segment config: selector %q: %w", sel, err)
			}
		}
	}
	return nil
}
