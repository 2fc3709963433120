package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/kiosk"
	"github.com/existflow/memberbooth/internal/logger"
)

// Shell is the kiosk's handle on the terminal UI. Errors and the busy flag
// are read back from the kiosk view, so it only has to remember a quit.
type Shell struct {
	quit bool
}

// NewShell creates a Shell for kiosk.Deps.
func NewShell() *Shell { return &Shell{} }

func (s *Shell) ShowError(title, msg string) {
	logger.Debug("Showing error", logger.F("title", title), logger.F("message", msg))
}

func (s *Shell) SetBusy(bool) {}

// Quit makes the next Update stop the program.
func (s *Shell) Quit() { s.quit = true }

// Model is the main TUI model
type Model struct {
	app   *kiosk.App
	shell *Shell

	// UI state
	width  int
	height int
	screen kiosk.Screen
	state  kiosk.State
	cursor int

	// Input
	tag     textinput.Model
	number  textinput.Model
	pin     textinput.Model
	pinStep int
	text    textarea.Model
	hours   textinput.Model
	spinner spinner.Model

	lastError *kiosk.ErrorMessage
}

// NewModel creates a new TUI model
func NewModel(app *kiosk.App, shell *Shell) Model {
	logger.Info("Initializing TUI model")

	tag := textinput.New()
	tag.Placeholder = "Scan or type your tag..."
	tag.CharLimit = 32
	tag.Width = 20

	number := textinput.New()
	number.Placeholder = "Member number"
	number.CharLimit = 8
	number.Width = 20

	pin := textinput.New()
	pin.Placeholder = "PIN code"
	pin.CharLimit = 16
	pin.Width = 20
	pin.EchoMode = textinput.EchoPassword
	pin.EchoCharacter = '•'

	text := textarea.New()
	text.ShowLineNumbers = false
	text.SetWidth(50)
	text.SetHeight(5)

	hours := textinput.New()
	hours.CharLimit = 3
	hours.Width = 10

	return Model{
		app:     app,
		shell:   shell,
		screen:  -1,
		tag:     tag,
		number:  number,
		pin:     pin,
		text:    text,
		hours:   hours,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// enter resets the widgets of the screen v shows.
func (m *Model) enter(v kiosk.View) {
	m.screen = v.Screen
	m.state = m.app.Current()
	m.cursor = 0
	m.tag.Blur()
	m.number.Blur()
	m.pin.Blur()
	m.text.Blur()
	m.hours.Blur()

	switch v.Screen {
	case kiosk.ScreenLogin:
		m.tag.Reset()
		m.number.Reset()
		m.pin.Reset()
		m.pinStep = 0
		if v.LoginMethod == config.LoginPIN {
			m.number.Focus()
		} else {
			m.tag.Focus()
		}
	case kiosk.ScreenEditor:
		if v.Editor == nil {
			return
		}
		if v.Editor.Numeric {
			m.hours.Reset()
			m.hours.Placeholder = v.Editor.Placeholder
			m.hours.CharLimit = v.Editor.MaxLength
			m.hours.Focus()
		} else {
			m.text.Reset()
			m.text.Placeholder = v.Editor.Placeholder
			m.text.CharLimit = v.Editor.MaxLength
			m.text.Focus()
		}
	}
}

// sync brings the widgets in line with the kiosk after it handled something.
// A new state resets the widgets even when it shows the same screen.
func (m *Model) sync() {
	v := m.app.View()
	if v.Screen != m.screen || m.app.Current() != m.state {
		m.enter(v)
	}

	if v.Screen == kiosk.ScreenLogin {
		if v.TagInput && m.tag.Value() != v.Tag {
			m.tag.SetValue(v.Tag)
		}
		if v.Error != nil && v.Error != m.lastError && v.LoginMethod == config.LoginPIN {
			m.pin.Reset()
		}
	}
	if v.Screen == kiosk.ScreenMember && m.cursor >= len(v.Menu) {
		m.cursor = 0
	}
	m.lastError = v.Error
}
