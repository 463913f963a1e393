package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:         "check",
	Short:       "Check that the configured AI providers are reachable",
	Long:        `Creates the configured embedding and language model clients and pings each one.`,
	Args:        cobra.NoArgs,
	Annotations: needs(NeedConfig),
	RunE:        runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return errors.New("health service not configured")
	}

	failed := 0
	for _, s := range healthService.Check(cmd.Context()) {
		if s.OK() {
			cmd.Printf("  ok    %-9s %s (%s)\n", s.Service, s.Provider, s.Model)
			continue
		}
		failed++
		cmd.Printf("  FAIL  %-9s %s (%s): %v\n", s.Service, s.Provider, s.Model, s.Err)
	}
	if failed > 0 {
		return fmt.Errorf("%d service(s) unavailable", failed)
	}
	return nil
}
