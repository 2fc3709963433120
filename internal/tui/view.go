package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/kiosk"
	"github.com/existflow/memberbooth/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	v := m.app.View()
	var body string
	switch v.Screen {
	case kiosk.ScreenLogin:
		body = m.renderLogin(v)
	case kiosk.ScreenMember:
		body = m.renderMember(v)
	case kiosk.ScreenEditor:
		body = m.renderEditor(v)
	default:
		body = m.renderWaiting(v)
	}

	parts := []string{HeaderStyle.Render("Makerspace Memberbooth")}
	if v.Banner != "" {
		parts = append(parts, BannerStyle.Render(v.Banner))
	}
	if v.Error != nil {
		parts = append(parts, ErrorStyle.Render(lipgloss.NewStyle().Bold(true).Render(v.Error.Title)+"\n"+v.Error.Text))
	}
	parts = append(parts, body)

	main := lipgloss.Place(
		m.width, m.height-2,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, parts...),
		lipgloss.WithWhitespaceChars(" "),
	)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar(v))
}

func (m Model) renderWaiting(v kiosk.View) string {
	content := lipgloss.NewStyle().Bold(true).Render(v.Title) + "\n\n"
	content += m.spinner.View() + " " + v.Message
	return PanelStyle.Render(content)
}

func (m Model) renderLogin(v kiosk.View) string {
	content := lipgloss.NewStyle().Bold(true).Render(v.Title) + "\n\n"
	content += v.Message + "\n\n"

	switch {
	case v.LoginMethod == config.LoginPIN:
		content += m.number.View() + "\n" + m.pin.View()
	case v.TagInput:
		content += m.tag.View()
	default:
		content += HelpStyle.Render("Hold your tag against the reader")
	}
	if v.Progress || v.Busy {
		content += "\n\n" + m.spinner.View() + " Looking you up..."
	}
	return PanelStyle.Render(content)
}

func (m Model) renderMember(v kiosk.View) string {
	content := m.renderMemberSummary(v.Member) + "\n"
	content += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", 36)) + "\n\n"

	for i, item := range v.Menu {
		cursor := "  "
		style := MenuItemStyle
		if !v.MenuEnabled {
			style = MenuItemDisabledStyle
		} else if i == m.cursor {
			cursor = "❯ "
			style = MenuItemSelectedStyle
		}
		title := item.Title
		if item.Edits {
			title += "..."
		}
		content += style.Render(fmt.Sprintf("%s%d %s", cursor, i+1, title)) + "\n"
	}
	if v.Busy {
		content += "\n" + m.spinner.View() + " Printing..."
	}
	return PanelStyle.Render(content)
}

func (m Model) renderMemberSummary(member *model.Member) string {
	if member == nil {
		return ""
	}
	s := lipgloss.NewStyle().Bold(true).Foreground(Primary).
		Render(fmt.Sprintf("#%d %s", member.Number, truncate(member.Name(), 30))) + "\n"
	s += endDateLine("Membership", member.Membership)
	s += endDateLine("Lab access", member.EffectiveLabAccess)
	return s
}

func endDateLine(name string, d model.EndDate) string {
	return accessStyle(d.Active).Render(fmt.Sprintf("%s: %s", name, d.Format())) + "\n"
}

func (m Model) renderEditor(v kiosk.View) string {
	if v.Editor == nil {
		return ""
	}
	ed := v.Editor
	content := lipgloss.NewStyle().Bold(true).Render(v.Title) + "\n"
	content += ed.Prompt + "\n\n"
	if ed.Numeric {
		content += m.hours.View() + " hours"
	} else {
		content += m.text.View() + "\n"
		content += HelpStyle.Render(fmt.Sprintf("%d/%d", utf8.RuneCountInString(m.text.Value()), ed.MaxLength))
	}
	if v.Busy {
		content += "\n\n" + m.spinner.View() + " Printing..."
	}
	return PanelStyle.Render(content)
}

func (m Model) renderStatusBar(v kiosk.View) string {
	var help []string
	switch v.Screen {
	case kiosk.ScreenLogin:
		if v.LoginMethod == config.LoginPIN {
			help = append(help, "tab:next field", "enter:log in")
		}
	case kiosk.ScreenMember:
		help = append(help, "↑/↓:choose", "enter:print", "1-9:quick print", "esc:log out")
	case kiosk.ScreenEditor:
		if v.Editor != nil && v.Editor.Numeric {
			help = append(help, "enter:print")
		} else {
			help = append(help, "ctrl+s:print")
		}
		help = append(help, "esc:cancel")
	}
	help = append(help, "ctrl+q:quit")
	return StatusBarStyle.Width(m.width).Render(strings.Join(help, "  "))
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
