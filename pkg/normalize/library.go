package normalize

import (
	"fmt"

	h2m "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/jmylchreest/chatxport/pkg/page"
)

// Library converts Markdown with html-to-markdown. Plain text goes through
// the builtin rules, which the library has no equivalent for.
type Library struct {
	conv     *h2m.Converter
	fallback *Builtin
}

// NewLibrary creates the html-to-markdown backed normalizer.
func NewLibrary() *Library {
	return &Library{
		conv: h2m.NewConverter(
			h2m.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		fallback: NewBuiltin(),
	}
}

// Name implements Normalizer.
func (l *Library) Name() string { return string(KindLibrary) }

// Normalize implements Normalizer.
func (l *Library) Normalize(el *page.Element, form Form) (string, error) {
	if el == nil {
		return "", ErrNilElement
	}
	if form != Markdown {
		return l.fallback.Normalize(el, form)
	}

	src, err := el.OuterHTML()
	if err != nil {
		return "", fmt.Errorf("serialize element: %w", err)
	}

	var opts []h2m.ConvertOptionFunc
	if u := el.Page().URL(); u != "" {
		opts = append(opts, h2m.WithDomain(u))
	}
	md, err := l.conv.ConvertString(src, opts...)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return Collapse(md), nil
}
