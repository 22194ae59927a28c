// Package nav is the route catalog shared by the sidebar, the favorites list
// and the CLI.
package nav

import (
	"strings"

	"github.com/Iron-Ham/watchdesk/internal/appstate"
)

// Page identifies which view renders a route.
type Page int

const (
	PageHome Page = iota
	PageTrafficMonitor
	PageLogMonitor
	PagePolicy
	PageMyPage
)

// Route is one navigable destination.
type Route struct {
	Key     string
	Label   string
	Section appstate.Section
	Page    Page
}

// Route keys.
const (
	Home                      = "home"
	Traffic                   = "traffic"
	Network                   = "network"
	NetworkTrafficAttackTypes = "typeofNetworkTrafficAttack"
	SystemLogAttackTypes      = "typeofSystemLogAttack"
	AttackIPBlocking          = "attackIPBlocking"
	IsolateInfectedPC         = "isolateInternalInfectedPC"
	BlockingCertainPorts      = "blockingcertainports"
	MyPage                    = "mypage"
)

var routes = []Route{
	{Key: Traffic, Label: "Network Traffic Monitoring", Section: appstate.SectionMonitoring, Page: PageTrafficMonitor},
	{Key: Network, Label: "System Log Monitoring", Section: appstate.SectionMonitoring, Page: PageLogMonitor},
	{Key: NetworkTrafficAttackTypes, Label: "Network Traffic Attack Types", Section: appstate.SectionSummary, Page: PagePolicy},
	{Key: SystemLogAttackTypes, Label: "System Log Attack Types", Section: appstate.SectionSummary, Page: PagePolicy},
	{Key: AttackIPBlocking, Label: "External Attack IP Blocking", Section: appstate.SectionAttack, Page: PagePolicy},
	{Key: IsolateInfectedPC, Label: "Infected Internal PC Isolation", Section: appstate.SectionAttack, Page: PagePolicy},
	{Key: BlockingCertainPorts, Label: "Specific Port Blocking", Section: appstate.SectionAttack, Page: PagePolicy},
	{Key: MyPage, Label: "My Page", Page: PageMyPage},
}

var sectionTitles = map[appstate.Section]string{
	appstate.SectionFavorites:  "Favorites",
	appstate.SectionMonitoring: "Real-time Monitoring",
	appstate.SectionSummary:    "Attack Summary",
	appstate.SectionAttack:     "Response Policies",
}

// Routes returns every route in sidebar order.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup returns the route for key.
func Lookup(key string) (Route, bool) {
	key = strings.TrimPrefix(key, "/")
	for _, r := range routes {
		if r.Key == key {
			return r, true
		}
	}
	return Route{}, false
}

// InSection returns the routes listed under section.
func InSection(section appstate.Section) []Route {
	var out []Route
	for _, r := range routes {
		if r.Section == section {
			out = append(out, r)
		}
	}
	return out
}

// SectionTitle returns the sidebar heading of section.
func SectionTitle(section appstate.Section) string {
	if t, ok := sectionTitles[section]; ok {
		return t
	}
	return string(section)
}

// Label returns the display label for key. Unknown keys are capitalized.
func Label(key string) string {
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == Home {
		return "Main"
	}
	if r, ok := Lookup(key); ok {
		return r.Label
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// Breadcrumb returns the section title and label shown above a page.
func Breadcrumb(key string) (category, label string) {
	if r, ok := Lookup(key); ok && r.Section != "" {
		category = SectionTitle(r.Section)
	}
	return category, Label(key)
}
