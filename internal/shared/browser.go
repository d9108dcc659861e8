package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// startCommand runs cmd without waiting; replaced in tests.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// OpenBrowser opens the system browser at url (the sign-in consent page).
func OpenBrowser(url string) error {
	cmd, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func browserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
