// Package cmd implements the watchdesk command line.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/watchdesk/internal/config"
	"github.com/Iron-Ham/watchdesk/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "watchdesk",
	Short: "Security monitoring console",
	Long: `watchdesk is a terminal client for the security monitoring backend.

It signs employees in, shows live network traffic and system log threats,
keeps a short list of favorite pages and lets you ask the analysis
assistant about what it sees. Run 'watchdesk dashboard' for the full
interactive view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors that were not already shown to the
// user as a notification are printed to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !isReported(err) {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

// reportedError marks an error whose message the notifier already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// reported wraps err from an account or store flow that notifies on failure.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

func isReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/watchdesk/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	// WATCHDESK_API_AUTH_URL overrides api.auth_url, and a .env file in the
	// working directory is loaded first.
	if err := config.BindEnv(); err != nil {
		rootCmd.PrintErrln("warning: could not load .env:", err)
	}

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
