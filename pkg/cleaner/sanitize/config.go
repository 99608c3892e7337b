// Package sanitize strips presentation markup from a message's HTML while
// keeping its tag structure, for the HTML export.
package sanitize

// Config defines what the sanitizer removes.
type Config struct {
	// === Attribute Cleaning ===

	// StripClasses removes class="" attributes.
	StripClasses bool `json:"strip_classes" mapstructure:"strip_classes"`

	// StripIDs removes id="" attributes.
	StripIDs bool `json:"strip_ids" mapstructure:"strip_ids"`

	// StripStyles removes style="" attributes.
	StripStyles bool `json:"strip_styles" mapstructure:"strip_styles"`

	// StripDataAttributes removes data-* attributes, including the
	// snapshot geometry stamps.
	StripDataAttributes bool `json:"strip_data_attributes" mapstructure:"strip_data_attributes"`

	// StripARIA removes aria-* attributes.
	StripARIA bool `json:"strip_aria" mapstructure:"strip_aria"`

	// === Structure ===

	// StripComments removes HTML comments.
	StripComments bool `json:"strip_comments" mapstructure:"strip_comments"`

	// StripEmptyElements removes element shells left with no element
	// children and whitespace-only text. Runs once; a parent emptied by
	// the pass is kept.
	StripEmptyElements bool `json:"strip_empty_elements" mapstructure:"strip_empty_elements"`

	// === Whitespace ===

	// CollapseWhitespace folds whitespace runs to one space outside
	// pre and textarea.
	CollapseWhitespace bool `json:"collapse_whitespace" mapstructure:"collapse_whitespace"`

	// TrimElements trims the final output.
	TrimElements bool `json:"trim_elements" mapstructure:"trim_elements"`
}

// DefaultConfig strips every presentation attribute, empty shells and
// redundant whitespace.
func DefaultConfig() *Config {
	return &Config{
		StripClasses:        true,
		StripIDs:            true,
		StripStyles:         true,
		StripDataAttributes: true,
		StripARIA:           true,
		StripComments:       true,
		StripEmptyElements:  true,
		CollapseWhitespace:  true,
		TrimElements:        true,
	}
}

// PresetAttributesOnly strips attributes but leaves structure and
// whitespace alone.
func PresetAttributesOnly() *Config {
	return &Config{
		StripClasses:        true,
		StripIDs:            true,
		StripStyles:         true,
		StripDataAttributes: true,
		StripARIA:           true,
	}
}

// attributeNames returns the attribute name patterns enabled in c.
func (c *Config) attributeNames() []string {
	var names []string
	if c.StripClasses {
		names = append(names, "class")
	}
	if c.StripIDs {
		names = append(names, "id")
	}
	if c.StripStyles {
		names = append(names, "style")
	}
	if c.StripDataAttributes {
		names = append(names, `data-[^=\s>]*`)
	}
	if c.StripARIA {
		names = append(names, `aria-[^=\s>]*`)
	}
	return names
}
