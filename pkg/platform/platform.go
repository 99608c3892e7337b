// Package platform identifies which chat service a page belongs to.
package platform

import (
	"errors"
	"net/url"
	"strings"

	"github.com/jmylchreest/chatxport/pkg/page"
)

// ErrUnsupportedPlatform is returned when exporting from a platform that is
// recognised but has no tuned selectors yet, or is not recognised at all.
var ErrUnsupportedPlatform = errors.New("platform is not supported")

// Tags for the known platforms.
const (
	Claude   = "claude"
	ChatGPT  = "chatgpt"
	Gemini   = "gemini"
	DeepSeek = "deepseek"
	Unknown  = "unknown"
)

// Info describes a platform.
type Info struct {
	Tag        string `json:"tag" yaml:"tag"`
	Name       string `json:"name" yaml:"name"`
	Company    string `json:"company,omitempty" yaml:"company,omitempty"`
	Supported  bool   `json:"supported" yaml:"supported"`
	ComingSoon bool   `json:"coming_soon,omitempty" yaml:"coming_soon,omitempty"`
}

type entry struct {
	hosts []string
	info  Info
}

// Checked in order; the first host substring that matches wins.
var known = []entry{
	{[]string{"claude.ai", "anthropic.com"}, Info{Tag: Claude, Name: "Claude", Company: "Anthropic", Supported: true}},
	{[]string{"chat.openai.com", "chatgpt.com"}, Info{Tag: ChatGPT, Name: "ChatGPT", Company: "OpenAI", ComingSoon: true}},
	{[]string{"gemini.google.com", "bard.google.com"}, Info{Tag: Gemini, Name: "Gemini", Company: "Google", ComingSoon: true}},
	{[]string{"deepseek.com"}, Info{Tag: DeepSeek, Name: "DeepSeek", Company: "DeepSeek", ComingSoon: true}},
}

var unknown = Info{Tag: Unknown, Name: "Unknown Platform"}

// Detector maps a page URL to platform information.
type Detector func(rawURL string) Info

// Detect identifies the platform from the URL's hostname. A value without
// a scheme is treated as a bare hostname.
func Detect(rawURL string) Info {
	host := hostname(rawURL)
	if host == "" {
		return unknown
	}
	for _, e := range known {
		for _, h := range e.hosts {
			if strings.Contains(host, h) {
				return e.info
			}
		}
	}
	return unknown
}

// Lookup returns the Info for a tag.
func Lookup(tag string) (Info, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, e := range known {
		if e.info.Tag == tag {
			return e.info, true
		}
	}
	return unknown, tag == Unknown
}

// Fixed returns a Detector that always reports the given tag. Unknown tags
// report the unknown platform under that tag.
func Fixed(tag string) Detector {
	info, ok := Lookup(tag)
	if !ok {
		info = Info{Tag: tag, Name: tag}
	}
	return func(string) Info { return info }
}

func hostname(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// versionSelector matches model pickers and version badges.
const versionSelector = `[class*="claude-version"], [data-testid*="model-selector"]`

// ModelVersion reads the Claude model version shown on the page, or
// "unknown".
func ModelVersion(root *page.Element) string {
	if root == nil {
		return "unknown"
	}
	for _, el := range root.Find(versionSelector) {
		text := el.Text()
		switch {
		case strings.Contains(text, "3.5"):
			return "3.5"
		case strings.Contains(text, "3 Opus"):
			return "3 Opus"
		case strings.Contains(text, "3 Sonnet"):
			return "3 Sonnet"
		case strings.Contains(text, "3 Haiku"):
			return "3 Haiku"
		case strings.Contains(text, "3"):
			return "3"
		case strings.Contains(text, "2"):
			return "2"
		}
	}
	return "unknown"
}
