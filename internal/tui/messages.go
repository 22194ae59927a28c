package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/watchdesk/internal/account"
	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/chat"
	"github.com/Iron-Ham/watchdesk/internal/monitor"
	"github.com/Iron-Ham/watchdesk/internal/notify"
)

// hydratedMsg is sent once persisted state has been loaded
type hydratedMsg struct {
	savedEmpNumber string
	keepLoggedIn   bool
}

// trafficMsg carries a finished traffic round
type trafficMsg monitor.TrafficSnapshot

// logsMsg carries a finished system-log round
type logsMsg monitor.LogSnapshot

// toastMsg carries a notification posted on the event bus
type toastMsg notify.Notification

// toastExpiredMsg clears the toast line if no newer toast replaced it
type toastExpiredMsg struct {
	seq int
}

// stateChangedMsg asks for a re-render after a store changed outside Update
type stateChangedMsg struct{}

// loginDoneMsg is sent when a login attempt finishes
type loginDoneMsg struct {
	err error
}

// logoutDoneMsg is sent when logout finishes
type logoutDoneMsg struct{}

// chatDoneMsg is sent when the assistant answered
type chatDoneMsg struct {
	message chat.Message
}

// profileMsg carries a refreshed profile
type profileMsg struct {
	user appstate.User
	err  error
}

// Commands

func hydrateCmd(d Deps) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		d.Session.Hydrate(ctx)
		if d.Favorites != nil {
			d.Favorites.Hydrate(ctx)
		}
		msg := hydratedMsg{}
		if d.Account != nil {
			msg.savedEmpNumber = d.Account.SavedEmployeeID(ctx)
			msg.keepLoggedIn = d.Account.KeepLoggedIn(ctx)
		}
		return msg
	}
}

func loginCmd(svc *account.Service, req account.LoginRequest) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: svc.Login(context.Background(), req)}
	}
}

func logoutCmd(svc *account.Service) tea.Cmd {
	return func() tea.Msg {
		svc.Logout(context.Background())
		return logoutDoneMsg{}
	}
}

func askCmd(conv *chat.Conversation, question string) tea.Cmd {
	return func() tea.Msg {
		m, _ := conv.Ask(context.Background(), question)
		return chatDoneMsg{message: m}
	}
}

func refreshProfileCmd(svc *account.Service) tea.Cmd {
	return func() tea.Msg {
		u, err := svc.RefreshProfile(context.Background())
		return profileMsg{user: u, err: err}
	}
}

func fetchTrafficCmd(feed *monitor.TrafficFeed) tea.Cmd {
	return func() tea.Msg {
		return trafficMsg(feed.Fetch(context.Background()))
	}
}

func fetchLogsCmd(feed *monitor.LogFeed) tea.Cmd {
	return func() tea.Msg {
		return logsMsg(feed.Fetch(context.Background()))
	}
}

func expireToastCmd(seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
