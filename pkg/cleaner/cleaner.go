// Package cleaner provides interfaces and implementations for cleaning the
// HTML of exported messages.
package cleaner

// Cleaner transforms an HTML fragment into a cleaner one.
type Cleaner interface {
	// Clean transforms the input HTML.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
