package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/nav"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or change the persisted layout state",
	Long: `Inspect or change the persisted layout state.

This is the same state the dashboard restores on start: the signed-in
employee, the sidebar and section layout and the unread notification
counter.`,
	Args: cobra.NoArgs,
	RunE: withApp(appOptions{}, runStateShow),
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the state as JSON",
	Args:  cobra.NoArgs,
	RunE:  withApp(appOptions{}, runStateShow),
}

var stateSidebarCmd = &cobra.Command{
	Use:   "sidebar",
	Short: "Collapse or expand the sidebar",
	Args:  cobra.NoArgs,
	RunE: withApp(appOptions{}, func(cmd *cobra.Command, a *app, _ []string) error {
		a.session.ToggleSidebarCollapsed()
		if a.session.Snapshot().IsSidebarCollapsed {
			fmt.Fprintln(cmd.OutOrStdout(), "Sidebar collapsed.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Sidebar expanded.")
		}
		return nil
	}),
}

var stateSectionCmd = &cobra.Command{
	Use:       "section <name>",
	Short:     "Open or close a sidebar section",
	Args:      cobra.ExactArgs(1),
	ValidArgs: sectionNames(),
	RunE:      withApp(appOptions{}, runStateSection),
}

var stateNotificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Open or close the notification panel",
	Args:  cobra.NoArgs,
	RunE: withApp(appOptions{}, func(cmd *cobra.Command, a *app, _ []string) error {
		a.session.ToggleNotificationOpen()
		fmt.Fprintf(cmd.OutOrStdout(), "Notification panel open: %v\n", a.session.Snapshot().IsNotificationOpen)
		return nil
	}),
}

var stateUnreadCmd = &cobra.Command{
	Use:   "unread <count>",
	Short: "Set the unread notification count",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(appOptions{}, func(cmd *cobra.Command, a *app, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return errors.NewValidationError("unread count must be a non-negative integer").WithValue(args[0])
		}
		a.session.SetUnreadCount(n)
		return nil
	}),
}

var stateReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Mark every notification as read",
	Args:  cobra.NoArgs,
	RunE: withApp(appOptions{}, func(cmd *cobra.Command, a *app, _ []string) error {
		a.session.MarkAllAsRead()
		return nil
	}),
}

func init() {
	stateCmd.AddCommand(stateShowCmd, stateSidebarCmd, stateSectionCmd, stateNotificationsCmd, stateUnreadCmd, stateReadCmd)
	rootCmd.AddCommand(stateCmd)
}

func sectionNames() []string {
	var names []string
	for _, s := range appstate.Sections() {
		names = append(names, string(s))
	}
	return names
}

func runStateShow(cmd *cobra.Command, a *app, _ []string) error {
	writeJSON(cmd.OutOrStdout(), a.session.Snapshot())
	return nil
}

func runStateSection(cmd *cobra.Command, a *app, args []string) error {
	name := strings.ToLower(args[0])
	for _, s := range appstate.Sections() {
		if string(s) != name {
			continue
		}
		a.session.ToggleSectionOpen(s)
		state := "closed"
		if a.session.Snapshot().OpenSections.Get(s) {
			state = "open"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s.\n", nav.SectionTitle(s), state)
		return nil
	}
	return errors.NewValidationError("unknown section, expected one of: " + strings.Join(sectionNames(), ", ")).
		WithField("section").WithValue(args[0])
}
