// Package styles holds the lipgloss palette and styles of the dashboard.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/watchdesk/internal/event"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#60A5FA") // Blue
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red (red-400)
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray (gray-500)
	FavoriteColor  = lipgloss.Color("#FBBF24") // Yellow

	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)
	Favorite  = lipgloss.NewStyle().Foreground(FavoriteColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Breadcrumb = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor)

	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1).
		MarginRight(1)

	CardValue = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	Sidebar = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)

	SidebarItem = lipgloss.NewStyle().
			Padding(0, 1)

	SidebarItemActive = lipgloss.NewStyle().
				Bold(true).
				Foreground(TextColor).
				Background(PrimaryColor).
				Padding(0, 1)

	SidebarSectionTitle = lipgloss.NewStyle().
				Bold(true).
				Foreground(MutedColor)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 1)

	Badge = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextColor).
		Background(ErrorColor).
		Padding(0, 1)

	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(MutedColor)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	InfoMsg = lipgloss.NewStyle().
		Foreground(PrimaryColor)

	LoginBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(1, 3)

	UserMessage = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)
)

// LevelStyle returns the toast style for a notification level.
func LevelStyle(level event.Level) lipgloss.Style {
	switch level {
	case event.LevelSuccess:
		return SuccessMsg
	case event.LevelError:
		return ErrorMsg
	case event.LevelLoading:
		return Muted
	default:
		return InfoMsg
	}
}

// LevelIcon returns the default icon for a notification level.
func LevelIcon(level event.Level) string {
	switch level {
	case event.LevelSuccess:
		return "✓"
	case event.LevelError:
		return "✗"
	case event.LevelLoading:
		return "…"
	default:
		return "●"
	}
}

// ConnectionDot renders the live/offline indicator of a feed.
func ConnectionDot(connected bool) string {
	if connected {
		return Secondary.Render("● live")
	}
	return Error.Render("● offline")
}
