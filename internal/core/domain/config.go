package domain

import (
	"fmt"
	"strings"
)

// SegmentStrategy names the segmentation strategy applied to a document.
type SegmentStrategy string

// Available segmentation strategies.
const (
	// StrategyManual splits line by line with small overlapping chunks.
	// Used for manuals made of enumerable items.
	StrategyManual SegmentStrategy = "manual"

	// StrategyHeader splits at detected numbered section headers.
	StrategyHeader SegmentStrategy = "header"
)

// IsValid returns true if the strategy is recognised.
func (s SegmentStrategy) IsValid() bool {
	return s == StrategyManual || s == StrategyHeader
}

// IndexBackendKind selects the vector index implementation.
type IndexBackendKind string

// Available index backends.
const (
	IndexBackendSQLite  IndexBackendKind = "sqlite"
	IndexBackendChromem IndexBackendKind = "chromem"
)

// IsValid returns true if the backend is recognised.
func (k IndexBackendKind) IsValid() bool {
	return k == IndexBackendSQLite || k == IndexBackendChromem
}

// Segmentation defaults. The manual values produce near line-level chunks;
// they are kept as named defaults so deployments can override them.
const (
	DefaultManualMaxSize = 20
	DefaultManualOverlap = 10
	DefaultHeaderMaxSize = 250
	DefaultHeaderOverlap = 0
)

// Retrieval and answer defaults.
const (
	DefaultK              = 5
	DefaultFetchK         = 20
	DefaultLambda         = 0.5
	DefaultMaxSentences   = 3
	DefaultDontKnowPhrase = "I don't have that information in the manuals I can access."
	DefaultClosingPhrase  = "Thanks for asking!"
)

// PathsConfig locates the inputs and the persisted index.
type PathsConfig struct {
	// SourceDir holds the source PDF (and text) files.
	SourceDir string `toml:"source_dir" yaml:"source_dir"`

	// IndexDir holds the persisted vector index. A non-empty directory
	// means the index exists and is reused.
	IndexDir string `toml:"index_dir" yaml:"index_dir"`

	// PromptDir holds user-editable prompt templates.
	PromptDir string `toml:"prompt_dir" yaml:"prompt_dir"`
}

// DocumentEntry tags one source file with its segmentation strategy.
type DocumentEntry struct {
	File     string          `toml:"file" yaml:"file"`
	Strategy SegmentStrategy `toml:"strategy" yaml:"strategy"`
}

// IngestConfig is the ingestion manifest.
type IngestConfig struct {
	// FailFast aborts the build on the first failing file.
	FailFast bool `toml:"fail_fast" yaml:"fail_fast"`

	// DefaultStrategy applies to files without an explicit entry.
	DefaultStrategy SegmentStrategy `toml:"default_strategy" yaml:"default_strategy"`

	// Documents tags individual files by base filename.
	Documents []DocumentEntry `toml:"documents" yaml:"documents"`
}

// StrategyFor returns the strategy tagged for a base filename.
func (c IngestConfig) StrategyFor(file string) SegmentStrategy {
	for _, d := range c.Documents {
		if d.File == file {
			return d.Strategy
		}
	}
	return c.DefaultStrategy
}

// Manifest describes one ingestion run: where the sources are and how
// each file is segmented.
type Manifest struct {
	SourceDir string
	IngestConfig
}

// Manifest returns the ingestion manifest for this configuration.
func (c Config) Manifest() Manifest {
	return Manifest{SourceDir: c.Paths.SourceDir, IngestConfig: c.Ingest}
}

// SplitSettings parameterises one segmentation strategy.
type SplitSettings struct {
	MaxSize    int      `toml:"max_size" yaml:"max_size"`
	Overlap    int      `toml:"overlap" yaml:"overlap"`
	Separators []string `toml:"separators" yaml:"separators"`
}

func (s SplitSettings) validate(name string) error {
	if s.MaxSize <= 0 {
		return fmt.Errorf("%w: segmenter.%s.max_size must be positive", ErrInvalidConfig, name)
	}
	if s.Overlap < 0 || s.Overlap >= s.MaxSize {
		return fmt.Errorf("%w: segmenter.%s.overlap must be in [0, max_size)", ErrInvalidConfig, name)
	}
	for _, sep := range s.Separators {
		if sep == "" {
			return fmt.Errorf("%w: segmenter.%s.separators must not contain empty strings", ErrInvalidConfig, name)
		}
	}
	return nil
}

// SegmenterConfig holds the parameters of each strategy.
type SegmenterConfig struct {
	Manual SplitSettings `toml:"manual" yaml:"manual"`

	// Header separators are derived from the header sentinel when empty.
	Header SplitSettings `toml:"header" yaml:"header"`
}

// RetrievalConfig tunes the diversity-aware retrieval.
type RetrievalConfig struct {
	// K is the number of chunks returned per question.
	K int `toml:"k" yaml:"k"`

	// FetchK is the candidate pool size considered by MMR.
	FetchK int `toml:"fetch_k" yaml:"fetch_k"`

	// Lambda weights relevance (1) against diversity (0).
	Lambda float64 `toml:"lambda" yaml:"lambda"`

	// MinSimilarity drops candidates whose similarity is not above it.
	MinSimilarity float64 `toml:"min_similarity" yaml:"min_similarity"`
}

// AnswerConfig shapes the grounded answer.
type AnswerConfig struct {
	DontKnowPhrase string `toml:"dont_know_phrase" yaml:"dont_know_phrase"`
	ClosingPhrase  string `toml:"closing_phrase" yaml:"closing_phrase"`
	MaxSentences   int    `toml:"max_sentences" yaml:"max_sentences"`

	// HistoryWindow keeps only the last N turns in the prompt; 0 sends the full history.
	HistoryWindow int `toml:"history_window" yaml:"history_window"`

	// CondenseQuestion rewrites follow-up questions into standalone ones before retrieval.
	CondenseQuestion bool `toml:"condense_question" yaml:"condense_question"`

	Temperature float64 `toml:"temperature" yaml:"temperature"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens"`
}

// IndexSettings selects and names the vector index.
type IndexSettings struct {
	Backend    IndexBackendKind `toml:"backend" yaml:"backend"`
	Collection string           `toml:"collection" yaml:"collection"`
}

// Config is the complete application configuration.
type Config struct {
	Paths     PathsConfig       `toml:"paths" yaml:"paths"`
	Ingest    IngestConfig      `toml:"ingest" yaml:"ingest"`
	Segmenter SegmenterConfig   `toml:"segmenter" yaml:"segmenter"`
	Retrieval RetrievalConfig   `toml:"retrieval" yaml:"retrieval"`
	Answer    AnswerConfig      `toml:"answer" yaml:"answer"`
	LLM       LLMSettings       `toml:"llm" yaml:"llm"`
	Embedding EmbeddingSettings `toml:"embedding" yaml:"embedding"`
	Index     IndexSettings     `toml:"index" yaml:"index"`
	Verbose   bool              `toml:"verbose" yaml:"verbose"`
}

// DefaultConfig returns a configuration populated with documented defaults.
func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			SourceDir: "docs",
			IndexDir:  "index",
		},
		Ingest: IngestConfig{
			DefaultStrategy: StrategyHeader,
		},
		Segmenter: SegmenterConfig{
			Manual: SplitSettings{
				MaxSize:    DefaultManualMaxSize,
				Overlap:    DefaultManualOverlap,
				Separators: []string{"\n"},
			},
			Header: SplitSettings{
				MaxSize: DefaultHeaderMaxSize,
				Overlap: DefaultHeaderOverlap,
			},
		},
		Retrieval: RetrievalConfig{
			K:      DefaultK,
			FetchK: DefaultFetchK,
			Lambda: DefaultLambda,
		},
		Answer: AnswerConfig{
			DontKnowPhrase: DefaultDontKnowPhrase,
			ClosingPhrase:  DefaultClosingPhrase,
			MaxSentences:   DefaultMaxSentences,
		},
		LLM: LLMSettings{
			Provider:       AIProviderOpenAI,
			Model:          DefaultLLMModels()[AIProviderOpenAI],
			APIKeyEnv:      DefaultAPIKeyEnv()[AIProviderOpenAI],
			TimeoutSeconds: 120,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     DefaultEmbeddingModels()[AIProviderOpenAI],
			APIKeyEnv: DefaultAPIKeyEnv()[AIProviderOpenAI],
			BatchSize: 64,
		},
		Index: IndexSettings{
			Backend:    IndexBackendSQLite,
			Collection: "manuals",
		},
	}
}

// Validate checks every field and returns the first violation wrapped
// in ErrInvalidConfig.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return fmt.Errorf("%w: paths.source_dir is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Paths.IndexDir) == "" {
		return fmt.Errorf("%w: paths.index_dir is required", ErrInvalidConfig)
	}
	if !c.Ingest.DefaultStrategy.IsValid() {
		return fmt.Errorf("%w: unknown default strategy %q", ErrInvalidConfig, c.Ingest.DefaultStrategy)
	}
	seen := make(map[string]bool, len(c.Ingest.Documents))
	for _, d := range c.Ingest.Documents {
		if d.File == "" {
			return fmt.Errorf("%w: ingest.documents entry without file", ErrInvalidConfig)
		}
		if !d.Strategy.IsValid() {
			return fmt.Errorf("%w: unknown strategy %q for %s", ErrInvalidConfig, d.Strategy, d.File)
		}
		if seen[d.File] {
			return fmt.Errorf("%w: %s listed twice in ingest.documents", ErrInvalidConfig, d.File)
		}
		seen[d.File] = true
	}
	if err := c.Segmenter.Manual.validate("manual"); err != nil {
		return err
	}
	if len(c.Segmenter.Manual.Separators) == 0 {
		return fmt.Errorf("%w: segmenter.manual.separators is required", ErrInvalidConfig)
	}
	if err := c.Segmenter.Header.validate("header"); err != nil {
		return err
	}
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.FetchK < c.Retrieval.K {
		return fmt.Errorf("%w: retrieval.fetch_k must be >= k", ErrInvalidConfig)
	}
	if c.Retrieval.Lambda < 0 || c.Retrieval.Lambda > 1 {
		return fmt.Errorf("%w: retrieval.lambda must be in [0,1]", ErrInvalidConfig)
	}
	if c.Retrieval.MinSimilarity < -1 || c.Retrieval.MinSimilarity >= 1 {
		return fmt.Errorf("%w: retrieval.min_similarity must be in [-1,1)", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Answer.DontKnowPhrase) == "" || strings.TrimSpace(c.Answer.ClosingPhrase) == "" {
		return fmt.Errorf("%w: answer phrases must not be empty", ErrInvalidConfig)
	}
	if c.Answer.MaxSentences <= 0 {
		return fmt.Errorf("%w: answer.max_sentences must be positive", ErrInvalidConfig)
	}
	if c.Answer.HistoryWindow < 0 {
		return fmt.Errorf("%w: answer.history_window must not be negative", ErrInvalidConfig)
	}
	if !c.LLM.Provider.SupportsChat() {
		return fmt.Errorf("%w: llm.provider %q cannot generate answers", ErrInvalidConfig, c.LLM.Provider)
	}
	if !c.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: embedding.provider %q cannot embed", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedding.requests_per_second must not be negative", ErrInvalidConfig)
	}
	if !c.Index.Backend.IsValid() {
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidConfig, c.Index.Backend)
	}
	return nil
}
