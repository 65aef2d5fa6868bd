package scrape

import (
	"fmt"
	"os"
	"os/exec"
)

// browserCandidates are the executable names we'll look for on the PATH when no
// browser path is configured
var browserCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
}

// FindBrowser returns the path to a Chrome or Chromium executable, preferring an
// explicitly configured path
func FindBrowser(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("browser not found at CHROME_PATH %s: %w", configured, err)
		}
		return configured, nil
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no Chrome or Chromium executable found; install one or set CHROME_PATH")
}
