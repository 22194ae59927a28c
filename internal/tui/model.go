package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/watchdesk/internal/account"
	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/chat"
	"github.com/Iron-Ham/watchdesk/internal/config"
	"github.com/Iron-Ham/watchdesk/internal/favorites"
	"github.com/Iron-Ham/watchdesk/internal/logging"
	"github.com/Iron-Ham/watchdesk/internal/monitor"
	"github.com/Iron-Ham/watchdesk/internal/nav"
	"github.com/Iron-Ham/watchdesk/internal/notify"
)

// Layout constants
const (
	CollapsedSidebarWidth = 5
	PanelWidth            = 38
	maxAlerts             = 50
)

// Deps are the stores and services the dashboard drives.
type Deps struct {
	Session   *appstate.Store
	Favorites *favorites.Store
	Account   *account.Service
	Traffic   *monitor.TrafficFeed
	Logs      *monitor.LogFeed
	Chat      *chat.Conversation
	Renderer  *chat.Renderer
	Config    *config.Config
	Logger    *logging.Logger
}

// Model is the Bubbletea model of the dashboard
type Model struct {
	deps   Deps
	logger *logging.Logger

	width  int
	height int

	// Sidebar
	cursor int
	route  string

	// Latest poll results
	traffic *monitor.TrafficSnapshot
	logs    *monitor.LogSnapshot

	// Toast line and its history for the notification panel
	toast    *notify.Notification
	toastSeq int
	alerts   []notify.Notification

	// Login form
	empInput   textinput.Model
	pwInput    textinput.Model
	loginFocus int
	keep       bool
	saveID     bool
	loggingIn  bool

	// Chat input
	chatInput textinput.Model
	chatting  bool

	spinner  spinner.Model
	quitting bool
}

// NewModel creates the dashboard model
func NewModel(d Deps) Model {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Logger == nil {
		d.Logger = logging.NopLogger()
	}

	emp := textinput.New()
	emp.Placeholder = "Employee number"
	emp.CharLimit = 10
	emp.Focus()

	pw := textinput.New()
	pw.Placeholder = "Password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'

	ci := textinput.New()
	ci.Placeholder = "Ask about the current threats..."
	ci.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		deps:      d,
		logger:    d.Logger.WithComponent("tui"),
		route:     nav.Home,
		empInput:  emp,
		pwInput:   pw,
		chatInput: ci,
		spinner:   sp,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(hydrateCmd(m.deps), m.spinner.Tick)
}

func (m Model) session() appstate.State {
	return m.deps.Session.Snapshot()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case hydratedMsg:
		m.keep = msg.keepLoggedIn
		if msg.savedEmpNumber != "" {
			m.saveID = true
			m.empInput.SetValue(msg.savedEmpNumber)
			m.empInput.Blur()
			m.loginFocus = 1
			m.pwInput.Focus()
		}
		return m, nil

	case trafficMsg:
		snap := monitor.TrafficSnapshot(msg)
		m.traffic = &snap
		return m, nil

	case logsMsg:
		snap := monitor.LogSnapshot(msg)
		m.logs = &snap
		return m, nil

	case toastMsg:
		n := notify.Notification(msg)
		m.toast = &n
		m.toastSeq++
		m.alerts = append(m.alerts, n)
		if extra := len(m.alerts) - maxAlerts; extra > 0 {
			m.alerts = m.alerts[extra:]
		}
		return m, expireToastCmd(m.toastSeq, m.deps.Config.TUI.ToastDuration())

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case stateChangedMsg:
		return m, nil

	case loginDoneMsg:
		m.loggingIn = false
		m.pwInput.SetValue("")
		if msg.err == nil {
			m.route = nav.Home
			m.cursor = 0
		}
		return m, nil

	case logoutDoneMsg:
		m.route = nav.Home
		m.cursor = 0
		m.chatting = false
		m.traffic = nil
		m.logs = nil
		if m.deps.Traffic != nil {
			m.deps.Traffic.Reset()
		}
		return m, nil

	case chatDoneMsg:
		return m, nil

	case profileMsg:
		if msg.err != nil {
			m.logger.Warn("profile refresh failed", "error", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	st := m.session()
	switch {
	case !st.HasHydrated:
		if msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case !st.IsLoggedIn:
		return m.handleLoginKey(msg)
	case m.chatting:
		return m.handleChatKey(msg)
	}

	items := m.sidebarItems(st)
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if r, ok := m.selected(items); ok {
			return m.open(r)
		}
	case "f":
		if r, ok := m.selected(items); ok && m.deps.Favorites != nil {
			_, _ = m.deps.Favorites.Toggle("/" + r.Key)
			m.clampCursor()
		}
	case "b":
		m.deps.Session.ToggleSidebarCollapsed()
	case "1", "2", "3", "4":
		section := appstate.Sections()[int(msg.String()[0]-'1')]
		m.deps.Session.ToggleSectionOpen(section)
		m.clampCursor()
	case "n":
		m.deps.Session.ToggleNotificationOpen()
	case "m":
		m.deps.Session.MarkAllAsRead()
	case "i":
		if m.deps.Chat == nil {
			return m, nil
		}
		if !st.IsNotificationOpen {
			m.deps.Session.ToggleNotificationOpen()
		}
		m.chatting = true
		return m, m.chatInput.Focus()
	case "r":
		return m, m.refresh()
	case "L":
		if m.deps.Account != nil {
			return m, logoutCmd(m.deps.Account)
		}
	}
	return m, nil
}

// open navigates to r and fetches its data right away.
func (m Model) open(r nav.Route) (tea.Model, tea.Cmd) {
	m.route = r.Key
	return m, m.refresh()
}

func (m Model) refresh() tea.Cmd {
	r, ok := nav.Lookup(m.route)
	if !ok {
		return nil
	}
	switch r.Page {
	case nav.PageTrafficMonitor:
		if m.deps.Traffic != nil {
			return fetchTrafficCmd(m.deps.Traffic)
		}
	case nav.PageLogMonitor:
		if m.deps.Logs != nil {
			return fetchLogsCmd(m.deps.Logs)
		}
	case nav.PageMyPage:
		if m.deps.Account != nil {
			return refreshProfileCmd(m.deps.Account)
		}
	}
	return nil
}

func (m *Model) clampCursor() {
	n := len(m.sidebarItems(m.session()))
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.loginFocus = 1 - m.loginFocus
		if m.loginFocus == 0 {
			m.pwInput.Blur()
			return m, m.empInput.Focus()
		}
		m.empInput.Blur()
		return m, m.pwInput.Focus()
	case "ctrl+k":
		m.keep = !m.keep
		return m, nil
	case "ctrl+s":
		m.saveID = !m.saveID
		return m, nil
	case "enter":
		if m.deps.Account == nil {
			return m, nil
		}
		req := account.LoginRequest{
			EmpNumber:    strings.TrimSpace(m.empInput.Value()),
			Password:     m.pwInput.Value(),
			KeepLoggedIn: m.keep,
			SaveID:       m.saveID,
		}
		m.loggingIn = true
		return m, loginCmd(m.deps.Account, req)
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.empInput, cmd = m.empInput.Update(msg)
	} else {
		m.pwInput, cmd = m.pwInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chatting = false
		m.chatInput.Blur()
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.chatInput.Value())
		m.chatInput.SetValue("")
		if q == "" {
			return m, nil
		}
		return m, askCmd(m.deps.Chat, q)
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m Model) sidebarWidth(st appstate.State) int {
	if st.IsSidebarCollapsed {
		return CollapsedSidebarWidth
	}
	return m.deps.Config.TUI.SidebarWidth
}
