package cleaner

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// PolicyCleaner runs HTML through a bluemonday policy. It drops scripts,
// event handlers and unsafe URL schemes while keeping structural markup.
type PolicyCleaner struct {
	policy *bluemonday.Policy
}

// NewPolicy creates a PolicyCleaner. With a nil policy, DefaultPolicy is
// used.
func NewPolicy(policy *bluemonday.Policy) *PolicyCleaner {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &PolicyCleaner{policy: policy}
}

// DefaultPolicy is the user generated content policy without rel="nofollow"
// rewriting, plus task list checkboxes.
func DefaultPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("type").Matching(regexp.MustCompile(`(?i)^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	return p
}

// Clean applies the policy.
func (c *PolicyCleaner) Clean(html string) (string, error) {
	return c.policy.Sanitize(html), nil
}

// Name returns the cleaner type.
func (c *PolicyCleaner) Name() string {
	return "bluemonday"
}
