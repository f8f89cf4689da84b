package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser launches the default browser on url, used to hand the user
// off to the Google consent screen. The process is started and not waited
// on; the OAuth callback server collects the result.
func OpenBrowser(url string) error {
	var name string
	args := []string{url}

	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "linux":
		name = "xdg-open"
	default:
		return fmt.Errorf("cannot open browser on %s, visit %s manually", runtime.GOOS, url)
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
