package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/chat"
	"github.com/Iron-Ham/watchdesk/internal/tui/styles"
	"github.com/Iron-Ham/watchdesk/internal/util"
)

const (
	headerHeight = 2
	footerHeight = 2
)

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.session()
	if !st.HasHydrated {
		return m.spinner.View() + " Loading session..."
	}
	if !st.IsLoggedIn {
		return m.renderLogin()
	}

	width, height := m.width, m.height
	if width == 0 {
		width, height = 120, 40
	}
	bodyHeight := max(height-headerHeight-footerHeight-2, 5)

	sidebar := m.renderSidebar(st, bodyHeight)
	contentWidth := width - lipgloss.Width(sidebar) - 1
	var panel string
	if st.IsNotificationOpen {
		panel = m.renderPanel(st, bodyHeight)
		contentWidth -= lipgloss.Width(panel) + 1
	}
	contentWidth = max(contentWidth, 20)

	content := styles.ContentBox.Width(contentWidth - 2).Height(bodyHeight).
		Render(m.renderPage(st, contentWidth-4))

	parts := []string{sidebar, " ", content}
	if panel != "" {
		parts = append(parts, " ", panel)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(st, width),
		body,
		m.renderToast(),
		m.renderHelp(),
	)
}

func (m Model) renderHeader(st appstate.State, width int) string {
	title := "watchdesk"
	if st.User != nil {
		title += styles.Muted.Render("  " + st.User.Name + " (" + st.User.EmpNumber + ")")
	}
	bell := styles.Muted.Render("🔔")
	if st.HasUnread && st.UnreadCount > 0 {
		bell += " " + styles.Badge.Render(fmt.Sprint(st.UnreadCount))
	}
	gap := max(width-lipgloss.Width(title)-lipgloss.Width(bell)-1, 1)
	return styles.Header.Width(width).Render(title + strings.Repeat(" ", gap) + bell)
}

func (m Model) renderPanel(st appstate.State, height int) string {
	var b strings.Builder

	b.WriteString(styles.SidebarSectionTitle.Render("Notifications"))
	if st.UnreadCount > 0 {
		b.WriteString(" " + styles.Badge.Render(fmt.Sprintf("%d new", st.UnreadCount)))
	}
	b.WriteString("\n")
	if len(m.alerts) == 0 {
		b.WriteString(styles.Muted.Render("No notifications") + "\n")
	}
	start := max(len(m.alerts)-5, 0)
	for i := len(m.alerts) - 1; i >= start; i-- {
		n := m.alerts[i]
		icon := n.Icon
		if icon == "" {
			icon = styles.LevelIcon(n.Level)
		}
		b.WriteString(styles.LevelStyle(n.Level).Render(util.Truncate(icon+" "+n.Message, PanelWidth-4)) + "\n")
	}

	b.WriteString("\n" + styles.SidebarSectionTitle.Render("Assistant") + "\n")
	if m.deps.Chat != nil {
		msgs := m.deps.Chat.Messages()
		if len(msgs) == 0 {
			b.WriteString(styles.Muted.Render("Press i to ask a question.") + "\n")
		}
		for _, msg := range msgs {
			b.WriteString(m.renderChatMessage(msg) + "\n")
		}
		if m.chatting {
			b.WriteString(m.chatInput.View() + "\n")
		}
	}

	return styles.Panel.Width(PanelWidth).Height(height).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderChatMessage(msg chat.Message) string {
	switch {
	case msg.Role == chat.RoleUser:
		return styles.UserMessage.Render("> " + msg.Text)
	case msg.Pending:
		return m.spinner.View() + " " + styles.Muted.Render(msg.Text)
	case msg.Failed:
		return styles.ErrorMsg.Render(msg.Text)
	}
	return lipgloss.NewStyle().Width(PanelWidth - 4).Render(m.deps.Renderer.Render(msg))
}

func (m Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	icon := m.toast.Icon
	if icon == "" {
		icon = styles.LevelIcon(m.toast.Level)
	}
	return styles.LevelStyle(m.toast.Level).Render(icon + " " + m.toast.Message)
}

func (m Model) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"j/k", "move"}, {"enter", "open"}, {"f", "favorite"}, {"b", "sidebar"},
		{"1-4", "sections"}, {"n", "panel"}, {"m", "mark read"}, {"i", "ask"},
		{"r", "refresh"}, {"L", "logout"}, {"q", "quit"},
	}
	if m.chatting {
		keys = []struct{ key, desc string }{{"enter", "send"}, {"esc", "close input"}}
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = styles.HelpKey.Render(k.key) + " " + k.desc
	}
	return styles.HelpBar.Render(strings.Join(parts, "  "))
}

func (m Model) renderLogin() string {
	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	lines := []string{
		styles.Title.Render("watchdesk · Sign in"),
		m.empInput.View(),
		m.pwInput.View(),
		"",
		check(m.keep) + " Keep me logged in " + styles.Muted.Render("(ctrl+k)"),
		check(m.saveID) + " Remember employee number " + styles.Muted.Render("(ctrl+s)"),
		"",
	}
	if m.loggingIn {
		lines = append(lines, m.spinner.View()+" Signing in...")
	} else {
		lines = append(lines, styles.HelpBar.Render(
			styles.HelpKey.Render("tab")+" switch  "+styles.HelpKey.Render("enter")+" sign in  "+
				styles.HelpKey.Render("esc")+" quit"))
	}

	box := styles.LoginBox.Render(strings.Join(lines, "\n"))
	if toast := m.renderToast(); toast != "" {
		box += "\n" + toast
	}
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
