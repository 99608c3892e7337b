package fetcher

import (
	"os"
	"os/exec"

	"github.com/jmylchreest/chatxport/internal/logger"
)

// Common Chrome/Chromium binary names across different systems
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// chromePathEnv overrides discovery, e.g. for a pinned Chrome for Testing.
const chromePathEnv = "CHATXPORT_CHROME"

// FindChromePath returns the first Chrome binary found: preferred, then
// $CHATXPORT_CHROME, then the well-known names and locations. Returns ""
// when nothing is found and chromedp's own lookup should be used.
func FindChromePath(preferred string) string {
	candidates := make([]string, 0, len(chromeBinaryNames)+2)
	if preferred != "" {
		candidates = append(candidates, preferred)
	}
	if env := os.Getenv(chromePathEnv); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, chromeBinaryNames...)

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, snapshots may fail")
	return ""
}
