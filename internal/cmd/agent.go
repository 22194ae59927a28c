package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage the attack detection agent",
}

var agentDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the agent installer",
	Long: `Download the attack detection agent installer archive.

The signed-in session is used by default. With --emp the credentials are
checked first and a one-off token is used for the download; the stored
session is left untouched.`,
	Args: cobra.NoArgs,
	RunE: withApp(appOptions{}, runAgentDownload),
}

func init() {
	agentDownloadCmd.Flags().StringP("out", "o", "", "destination file (default is agent.download_path)")
	agentDownloadCmd.Flags().String("emp", "", "authenticate as this employee for the download")
	agentDownloadCmd.Flags().StringP("password", "p", "", "password for --emp (prompted when omitted)")
	agentCmd.AddCommand(agentDownloadCmd)
	rootCmd.AddCommand(agentCmd)
}

func runAgentDownload(cmd *cobra.Command, a *app, _ []string) error {
	dest, _ := cmd.Flags().GetString("out")
	if dest == "" {
		dest = a.cfg.Agent.DownloadPath
	}

	var (
		n   int64
		err error
	)
	if emp, _ := cmd.Flags().GetString("emp"); emp != "" {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			if password, err = newPrompter(cmd).secret("Password"); err != nil {
				return err
			}
		}
		n, err = a.account.AuthenticateAndDownload(cmd.Context(), emp, password, dest)
	} else {
		if err := a.requireLogin(); err != nil {
			return err
		}
		n, err = a.account.DownloadAgent(cmd.Context(), dest)
	}
	if err != nil {
		return reported(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s written to %s\n", humanize.Bytes(uint64(n)), dest)
	return nil
}
