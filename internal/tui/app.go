// Package tui is the booth's terminal shell. It draws the kiosk's view and
// turns key presses into kiosk view events.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/memberbooth/internal/kiosk"
	"github.com/existflow/memberbooth/internal/logger"
)

// Run drives app on a full screen terminal until it quits. shell must be
// the Shell app was created with.
func Run(app *kiosk.App, shell *Shell) error {
	logger.Info("Launching TUI")
	p := tea.NewProgram(NewModel(app, shell), tea.WithAltScreen())
	app.SetPoster(func(e kiosk.Event) { p.Send(eventMsg{event: e}) })
	defer app.Close()

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", logger.F("error", err))
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	logger.Info("TUI exited normally")
	return nil
}
