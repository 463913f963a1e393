package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the manuals",
	Long: `Retrieves the passages most relevant to the question and asks the
language model to answer from them alone. When nothing relevant is found
the configured "don't know" phrase is returned instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// sourceJSON is one cited passage in JSON output.
type sourceJSON struct {
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

type answerJSON struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Grounded bool         `json:"grounded"`
	Sources  []sourceJSON `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	question := strings.Join(args, " ")
	answer, err := answerService.Answer(cmd.Context(), answerService.NewSession(), question)
	if err != nil {
		return friendlyError(err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswer(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{
		Question: answer.Question,
		Answer:   answer.Text,
		Grounded: answer.Grounded,
		Sources:  make([]sourceJSON, len(answer.SourceChunks)),
	}
	for i, c := range answer.SourceChunks {
		out.Sources[i] = sourceJSON{Source: c.Source(), Page: c.Page(), Content: c.Content}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.SourceChunks) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, c := range answer.SourceChunks {
		cmd.Printf("  [%d] %s, page %d\n", i+1, c.Source(), c.Page())
	}
}
