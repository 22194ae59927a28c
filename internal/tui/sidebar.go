package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/nav"
	"github.com/Iron-Ham/watchdesk/internal/tui/styles"
	"github.com/Iron-Ham/watchdesk/internal/util"
)

// sidebarItem is one selectable sidebar row.
type sidebarItem struct {
	section appstate.Section
	route   nav.Route
}

// sidebarItems lists the selectable rows in display order: favorites first,
// then every open section, then My Page.
func (m Model) sidebarItems(st appstate.State) []sidebarItem {
	var items []sidebarItem
	if st.OpenSections.Get(appstate.SectionFavorites) && m.deps.Favorites != nil {
		for _, path := range m.deps.Favorites.List() {
			if r, ok := nav.Lookup(path); ok {
				items = append(items, sidebarItem{section: appstate.SectionFavorites, route: r})
			}
		}
	}
	for _, s := range appstate.Sections()[1:] {
		if !st.OpenSections.Get(s) {
			continue
		}
		for _, r := range nav.InSection(s) {
			items = append(items, sidebarItem{section: s, route: r})
		}
	}
	if r, ok := nav.Lookup(nav.MyPage); ok {
		items = append(items, sidebarItem{route: r})
	}
	return items
}

func (m Model) selected(items []sidebarItem) (nav.Route, bool) {
	if m.cursor < 0 || m.cursor >= len(items) {
		return nav.Route{}, false
	}
	return items[m.cursor].route, true
}

func (m Model) renderSidebar(st appstate.State, height int) string {
	width := m.sidebarWidth(st)
	items := m.sidebarItems(st)

	if st.IsSidebarCollapsed {
		var b strings.Builder
		for i, item := range items {
			marker := " "
			if i == m.cursor {
				marker = "▸"
			}
			b.WriteString(marker + string([]rune(item.route.Label)[:1]) + "\n")
		}
		return styles.Sidebar.Width(width).Height(height).Render(strings.TrimRight(b.String(), "\n"))
	}

	var b strings.Builder
	index := 0
	for n, s := range appstate.Sections() {
		arrow := "▾"
		if !st.OpenSections.Get(s) {
			arrow = "▸"
		}
		b.WriteString(styles.SidebarSectionTitle.Render(arrow+" "+nav.SectionTitle(s)) +
			styles.Muted.Render(" "+string(rune('1'+n))) + "\n")

		for index < len(items) && items[index].section == s {
			b.WriteString(m.renderSidebarRow(items[index], index, width) + "\n")
			index++
		}
		if s == appstate.SectionFavorites && st.OpenSections.Get(s) && m.favoritesEmpty() {
			b.WriteString(styles.Muted.Render("  press f to pin a page") + "\n")
		}
	}
	b.WriteString("\n")
	for ; index < len(items); index++ {
		b.WriteString(m.renderSidebarRow(items[index], index, width) + "\n")
	}

	return styles.Sidebar.Width(width).Height(height).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) favoritesEmpty() bool {
	return m.deps.Favorites == nil || m.deps.Favorites.Len() == 0
}

func (m Model) renderSidebarRow(item sidebarItem, index, width int) string {
	star := "  "
	if m.deps.Favorites != nil && m.deps.Favorites.Has("/"+item.route.Key) {
		star = styles.Favorite.Render("★ ")
	}
	label := util.Truncate(item.route.Label, width-6)
	style := styles.SidebarItem
	if index == m.cursor {
		style = styles.SidebarItemActive
	}
	if item.route.Key == m.route {
		label = lipgloss.NewStyle().Underline(true).Render(label)
	}
	return star + style.Render(label)
}
