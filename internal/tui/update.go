package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/kiosk"
)

// startMsg enters the kiosk's first state from inside the loop.
type startMsg struct{}

// eventMsg carries a kiosk event posted from a timer goroutine.
type eventMsg struct {
	event kiosk.Event
}

// Init initializes the model with the spinner and the kiosk start
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return startMsg{} })
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case startMsg:
		m.app.Start()

	case eventMsg:
		m.app.Dispatch(msg.event)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.ForceQuit) {
			m.app.Send(kiosk.ForceQuit{})
			break
		}
		cmd = m.handleKey(msg)

	default:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.shell.quit {
		return m, tea.Quit
	}
	m.sync()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	v := m.app.View()
	switch v.Screen {
	case kiosk.ScreenLogin:
		if v.LoginMethod == config.LoginPIN {
			return m.handlePinKeys(msg)
		}
		if v.TagInput {
			return m.handleTagKeys(msg)
		}
	case kiosk.ScreenMember:
		m.handleMenuKeys(msg, v)
	case kiosk.ScreenEditor:
		return m.handleEditorKeys(msg, v)
	}
	return nil
}

func (m *Model) handleTagKeys(msg tea.KeyMsg) tea.Cmd {
	before := m.tag.Value()
	var cmd tea.Cmd
	m.tag, cmd = m.tag.Update(msg)
	if m.tag.Value() != before {
		m.app.Send(kiosk.TagEntered{Text: m.tag.Value()})
	} else {
		m.app.Send(kiosk.Interacted{})
	}
	return cmd
}

func (m *Model) handlePinKeys(msg tea.KeyMsg) tea.Cmd {
	m.app.Send(kiosk.Interacted{})
	switch {
	case key.Matches(msg, keys.Tab):
		m.focusPin(1 - m.pinStep)
		return nil
	case key.Matches(msg, keys.Enter):
		if m.pinStep == 0 {
			m.focusPin(1)
			return nil
		}
		m.app.Send(kiosk.PinSubmitted{MemberNumber: m.number.Value(), PIN: m.pin.Value()})
		return nil
	}

	var cmd tea.Cmd
	if m.pinStep == 0 {
		m.number, cmd = m.number.Update(msg)
	} else {
		m.pin, cmd = m.pin.Update(msg)
	}
	return cmd
}

func (m *Model) focusPin(step int) {
	m.pinStep = step
	if step == 0 {
		m.pin.Blur()
		m.number.Focus()
	} else {
		m.number.Blur()
		m.pin.Focus()
	}
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg, v kiosk.View) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.app.Send(kiosk.LoggedOut{})
		return
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(v.Menu)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if v.MenuEnabled && m.cursor < len(v.Menu) {
			m.app.Send(kiosk.LabelChosen{Kind: v.Menu[m.cursor].Kind})
			return
		}
	default:
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(v.Menu) && v.MenuEnabled {
				m.cursor = i
				m.app.Send(kiosk.LabelChosen{Kind: v.Menu[i].Kind})
				return
			}
		}
	}
	m.app.Send(kiosk.Interacted{})
}

func (m *Model) handleEditorKeys(msg tea.KeyMsg, v kiosk.View) tea.Cmd {
	numeric := v.Editor != nil && v.Editor.Numeric
	switch {
	case key.Matches(msg, keys.Escape):
		m.app.Send(kiosk.Cancelled{})
		return nil
	case key.Matches(msg, keys.Print), numeric && key.Matches(msg, keys.Enter):
		if numeric {
			m.app.Send(kiosk.DescriptionSubmitted{Text: m.hours.Value()})
		} else {
			m.app.Send(kiosk.DescriptionSubmitted{Text: m.text.Value()})
		}
		return nil
	}

	var cmd tea.Cmd
	if numeric {
		m.hours, cmd = m.hours.Update(msg)
	} else {
		m.text, cmd = m.text.Update(msg)
	}
	m.app.Send(kiosk.Interacted{})
	return cmd
}
