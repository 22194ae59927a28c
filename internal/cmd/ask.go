package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/watchdesk/internal/chat"
	"github.com/Iron-Ham/watchdesk/internal/errors"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask the analysis assistant",
	Long: `Ask the analysis assistant a question.

With a question on the command line, the answer is printed and the command
exits. Without one, questions are read from stdin one per line until EOF
or a line reading "exit".`,
	RunE: withApp(appOptions{}, runAsk),
}

func init() {
	askCmd.Flags().Bool("raw", false, "print answers without markdown rendering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, a *app, args []string) error {
	conv := chat.New(a.client, a.logger)

	var renderer *chat.Renderer
	if raw, _ := cmd.Flags().GetBool("raw"); !raw {
		r, err := chat.NewRenderer(a.cfg.TUI.MarkdownStyle, 0)
		if err != nil {
			a.logger.Warn("markdown renderer unavailable", "error", err)
		}
		renderer = r
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		m, err := conv.Ask(cmd.Context(), strings.Join(args, " "))
		fmt.Fprintln(out, renderer.Render(m))
		return reported(err)
	}

	p := newPrompter(cmd)
	for {
		q, err := p.line("?")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if q == "exit" {
			return nil
		}
		if q == "" {
			continue
		}
		m, _ := conv.Ask(cmd.Context(), q)
		fmt.Fprintln(out, renderer.Render(m))
	}
}
