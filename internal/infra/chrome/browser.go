package chrome

import (
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
)

// ResolveBrowser returns the chrome executable to use. With an empty
// configured path it downloads a compatible Chromium build into the local
// cache (~/.cache/rod/browser on Unix) and returns that binary, so the CLI
// works on machines without a system chrome.
func ResolveBrowser(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("chrome: downloading browser: %w", err)
	}
	return path, nil
}
