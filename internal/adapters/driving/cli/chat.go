package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation about the manuals",
	Long: `Starts a conversation. Follow-up questions see the previous turns.

When stdin is a terminal an interactive chat UI is shown; otherwise, or
with --plain, questions are read one per line and answers printed.

Controls:
  Enter    - Ask
  Ctrl+S   - Show/hide sources
  Ctrl+N   - New conversation
  PgUp/Dn  - Scroll
  Esc      - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line mode even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	if !chatPlain && term.IsTerminal(int(os.Stdin.Fd())) {
		app, err := tui.NewApp(&tui.Ports{Answer: answerService})
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		app.WithContext(cmd.Context())
		if err := app.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	}

	return chatLines(cmd)
}

// chatLines answers one question per input line until EOF or "exit".
// A failed question is reported and the conversation continues.
func chatLines(cmd *cobra.Command) error {
	session := answerService.NewSession()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, err := answerService.Answer(cmd.Context(), session, question)
		if err != nil {
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			cmd.PrintErrf("Error: %v\n", friendlyError(err))
			continue
		}
		outputAnswer(cmd, answer)
		cmd.Println()
	}
}
