// Package appstate holds the client session: authentication, the signed-in
// user's profile and the dashboard layout flags. Every mutation is persisted
// as a JSON snapshot to the backend resolved by a storage.Provider at that
// moment, so the "keep me logged in" choice decides where the session lives.
package appstate

// User is the signed-in employee's profile.
type User struct {
	EmpNumber string `json:"emp_number"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// UserUpdate is a partial profile; nil fields are left unchanged.
type UserUpdate struct {
	EmpNumber *string
	Name      *string
	Email     *string
	Phone     *string
}

// Section identifies a collapsible sidebar group.
type Section string

const (
	SectionFavorites  Section = "favorites"
	SectionSummary    Section = "summary"
	SectionMonitoring Section = "monitoring"
	SectionAttack     Section = "attack"
)

// Sections lists every section in sidebar order.
func Sections() []Section {
	return []Section{SectionFavorites, SectionMonitoring, SectionSummary, SectionAttack}
}

// OpenSections holds the expanded/collapsed flag of each sidebar group.
type OpenSections struct {
	Favorites  bool `json:"favorites"`
	Summary    bool `json:"summary"`
	Monitoring bool `json:"monitoring"`
	Attack     bool `json:"attack"`
}

// Get reports whether s is open. Unknown sections report false.
func (o OpenSections) Get(s Section) bool {
	switch s {
	case SectionFavorites:
		return o.Favorites
	case SectionSummary:
		return o.Summary
	case SectionMonitoring:
		return o.Monitoring
	case SectionAttack:
		return o.Attack
	}
	return false
}

func (o *OpenSections) toggle(s Section) bool {
	switch s {
	case SectionFavorites:
		o.Favorites = !o.Favorites
	case SectionSummary:
		o.Summary = !o.Summary
	case SectionMonitoring:
		o.Monitoring = !o.Monitoring
	case SectionAttack:
		o.Attack = !o.Attack
	default:
		return false
	}
	return true
}

// State is the session snapshot.
type State struct {
	IsLoggedIn         bool         `json:"isLoggedIn"`
	User               *User        `json:"user"`
	IsSidebarCollapsed bool         `json:"isSidebarCollapsed"`
	OpenSections       OpenSections `json:"openSections"`
	IsNotificationOpen bool         `json:"isNotificationOpen"`
	HasUnread          bool         `json:"hasUnread"`
	UnreadCount        int          `json:"unreadCount"`

	// HasHydrated is runtime only and never persisted.
	HasHydrated bool `json:"-"`
}

// DefaultState returns the state of a fresh, logged-out client.
func DefaultState() State {
	return State{
		OpenSections: OpenSections{
			Favorites:  true,
			Summary:    true,
			Monitoring: true,
			Attack:     true,
		},
		IsNotificationOpen: true,
	}
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
