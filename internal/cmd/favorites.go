package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/favorites"
	"github.com/Iron-Ham/watchdesk/internal/nav"
	"github.com/Iron-Ham/watchdesk/internal/util"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "List or change the pinned pages",
	Long: fmt.Sprintf(`List or change the pinned sidebar pages.

At most %d pages can be pinned. Pages are named by their route key, e.g.
traffic, network or attackIPBlocking.`, favorites.MaxFavorites),
	Args: cobra.NoArgs,
	RunE: withApp(appOptions{}, runFavoritesList),
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the pinned pages",
	Args:  cobra.NoArgs,
	RunE:  withApp(appOptions{}, runFavoritesList),
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <route>",
	Short: "Pin or unpin a page",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runFavoritesToggle),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var keys []string
		for _, r := range nav.Routes() {
			keys = append(keys, r.Key)
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	},
}

var favoritesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Unpin every page",
	Args:  cobra.NoArgs,
	RunE:  withApp(appOptions{}, runFavoritesClear),
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd, favoritesClearCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func runFavoritesList(cmd *cobra.Command, a *app, _ []string) error {
	list := a.favorites.List()
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No favorites yet.")
		return nil
	}
	for i, path := range list {
		fmt.Fprintf(out, "%d. %s %s\n", i+1, util.PadRight(nav.Label(path), 28), path)
	}
	return nil
}

func runFavoritesToggle(cmd *cobra.Command, a *app, args []string) error {
	key := strings.TrimPrefix(args[0], "/")
	if _, ok := nav.Lookup(key); !ok {
		return userError(errors.NewNotFoundError("page", key))
	}
	_, err := a.favorites.Toggle("/" + key)
	return reported(err)
}

func runFavoritesClear(cmd *cobra.Command, a *app, _ []string) error {
	a.favorites.Clear()
	fmt.Fprintln(cmd.OutOrStdout(), "Favorites cleared.")
	return nil
}
