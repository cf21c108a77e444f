package tui

import (
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/felixgeelhaar/clubhub/internal/state"
)

// strict strips markup from API-provided text before it reaches the terminal.
var strict = bluemonday.StrictPolicy()

func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if banner := m.renderSessionBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n\n")
	}

	if m.form != nil {
		b.WriteString(m.styles.Border.Render(m.form.View()))
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render(m.styles.Key.Render("esc") + " cancel"))
		return b.String()
	}

	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.styles.Border.Render(m.renderPane()))
	b.WriteString("\n")

	switch {
	case m.busy != "":
		b.WriteString(m.spinner.View() + " " + m.styles.Status.Render(m.busy))
		b.WriteString("\n")
	case m.flash != "":
		b.WriteString(m.styles.Warning.Render(m.flash))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpLine())
	return b.String()
}

// renderHeader renders the team and the signed-in user
func (m Model) renderHeader() string {
	title := m.styles.Title.Render("ClubHub")
	team := m.styles.Subtitle.Render("Team: ") + m.styles.Status.Render(clean(m.teamName()))

	user := m.styles.Muted.Render("not signed in")
	if u := m.app.User(); u != nil {
		name := clean(u.FullName())
		if name == "" {
			name = u.ID
		}
		user = m.styles.Subtitle.Render(name)
		if u.Role != "" {
			user += m.styles.Muted.Render(" (" + u.Role + ")")
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", team, "  ", user)
}

// renderSessionBanner explains an ended session, e.g. after the server
// rejected the stored token.
func (m Model) renderSessionBanner() string {
	if m.app.Status() == state.StatusAuthenticated {
		return ""
	}
	msg := "Session ended. Quit and run 'clubhub auth login' to sign in again."
	if err := m.app.Err(); err != nil {
		msg = err.Error()
	}
	return m.styles.Border.
		BorderForeground(lipgloss.Color("196")).
		Render(m.styles.Error.Render("Signed out: ") + firstLine(msg))
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, paneCount)
	for p := Pane(0); p < paneCount; p++ {
		label := p.String()
		if loading, _ := m.paneState(p); loading {
			label += " " + m.spinner.View()
		}
		if p == m.pane {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderPane() string {
	loading, err := m.paneState(m.pane)
	t := m.tables[m.pane]
	switch {
	case err != nil:
		return m.styles.Error.Render("Error: ") + firstLine(err.Error())
	case loading && len(t.Rows()) == 0:
		return m.spinner.View() + " " + m.styles.Muted.Render("Loading "+strings.ToLower(m.pane.String())+"...")
	case len(t.Rows()) == 0:
		return m.styles.Muted.Render("Nothing here yet")
	}
	return t.View()
}

// renderHelp renders the key binding overview
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	hotkeys := []struct {
		key  string
		desc string
	}{
		{"tab/→", "Next pane"},
		{"shift+tab/←", "Previous pane"},
		{"↑/↓", "Move selection"},
		{"t", "Switch team"},
		{"r", "Refresh team data"},
		{"n", m.newItemHelp()},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, hk := range hotkeys {
		b.WriteString(m.styles.Key.Render(fmt.Sprintf("%-12s", hk.key)) + " " + m.styles.KeyDesc.Render(hk.desc))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if granted := m.caps.Granted(); len(granted) > 0 {
		names := make([]string, len(granted))
		for i, p := range granted {
			names[i] = string(p)
		}
		b.WriteString(m.styles.Muted.Render("Your role may: " + strings.Join(names, ", ")))
	} else {
		b.WriteString(m.styles.Muted.Render("Your role has no management permissions"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Press ? or Esc to return"))
	return b.String()
}

func (m Model) newItemHelp() string {
	if m.caps.CanCreatePlayer {
		return "Add player"
	}
	return "Add player (not permitted for your role)"
}

// renderHelpLine renders the help line at the bottom
func (m Model) renderHelpLine() string {
	items := []string{
		m.styles.Key.Render("tab") + " pane",
		m.styles.Key.Render("t") + " team",
		m.styles.Key.Render("r") + " refresh",
	}
	if m.caps.CanCreatePlayer {
		items = append(items, m.styles.Key.Render("n")+" add player")
	}
	items = append(items,
		m.styles.Key.Render("?")+" help",
		m.styles.Key.Render("q")+" quit",
	)
	return m.styles.Help.Render(strings.Join(items, " • "))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
