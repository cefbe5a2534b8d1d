package tray

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// OpenURL hands url to the platform's default browser without waiting for
// it.
func OpenURL(url string) error {
	if url == "" {
		return errors.New("tray: empty url")
	}
	name, args := browserCommand(runtime.GOOS, url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("tray: open %s: %w", url, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}
