package layout

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Show writes the label to a temporary PNG and opens it in the desktop
// image viewer. The file is left for the viewer to read.
func (l *Label) Show() error {
	f, err := os.CreateTemp("", "memberbooth-label-*.png")
	if err != nil {
		return err
	}
	if err := l.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	cmd := exec.Command(opener, f.Name())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s with %s: %w", f.Name(), opener, err)
	}
	go cmd.Wait()
	return nil
}
