// Package cli implements the manualqa command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Persistent flags.
var (
	configPath string
	verbose    bool
)

// Need says how much of the application a command requires.
type Need string

const (
	// NeedNothing commands run without configuration.
	NeedNothing Need = "nothing"
	// NeedConfig commands only read the configuration.
	NeedConfig Need = "config"
	// NeedServices commands use the index and answer services.
	NeedServices Need = "services"
)

const needAnnotation = "manualqa/need"

// Options are passed to the bootstrap function.
type Options struct {
	ConfigPath string
	Verbose    bool
	Need       Need
}

// Services are the application services commands run against.
type Services struct {
	Answer driving.AnswerService
	Index  driving.IndexService
	Health driving.HealthService

	// SourceDir is the watched source directory.
	SourceDir string

	// Accept reports whether a path has a recognised document type.
	Accept func(path string) bool

	// Close releases everything the bootstrap opened.
	Close func() error
}

// BootstrapFunc loads configuration and builds the services a command needs.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap BootstrapFunc

	answerService driving.AnswerService
	indexService  driving.IndexService
	healthService driving.HealthService
	sourceDir     string
	acceptSource  func(path string) bool
	closeServices func() error
)

var rootCmd = &cobra.Command{
	Use:   "manualqa",
	Short: "Ask questions about your product manuals",
	Long: `manualqa answers questions using only the content of the manuals in
your source directory. Documents are split into chunks, embedded and stored
in a local vector index; each question retrieves the most relevant passages
and a language model answers from them.

Start with "manualqa ingest", then "manualqa ask" or "manualqa chat".`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ./manualqa.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	answerService = s.Answer
	indexService = s.Index
	healthService = s.Health
	sourceDir = s.SourceDir
	acceptSource = s.Accept
	closeServices = s.Close
}

// SetVersion sets the version printed by "manualqa version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func needOf(cmd *cobra.Command) Need {
	for c := cmd; c != nil; c = c.Parent() {
		if n, ok := c.Annotations[needAnnotation]; ok {
			return Need(n)
		}
	}
	return NeedServices
}

func needs(n Need) map[string]string {
	return map[string]string{needAnnotation: string(n)}
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	need := needOf(cmd)
	if need == NeedNothing || bootstrap == nil {
		return nil
	}

	s, err := bootstrap(cmd.Context(), Options{ConfigPath: configPath, Verbose: verbose, Need: need})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardown() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// ensureIndex loads or builds the index before a query command.
func ensureIndex(cmd *cobra.Command) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if _, err := indexService.Ensure(cmd.Context(), false); err != nil {
		return fmt.Errorf("index unavailable: %w", err)
	}
	return nil
}

// friendlyError rewrites provider rate limits for display.
func friendlyError(err error) error {
	if errors.Is(err, domain.ErrRateLimited) {
		return fmt.Errorf("the AI provider is rate limiting requests, try again shortly: %w", err)
	}
	return err
}
