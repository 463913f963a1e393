package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// DefaultFileNames are tried in order when no config path is given.
var DefaultFileNames = []string{"manualqa.toml", "manualqa.yaml", "manualqa.yml"}

// Load reads the configuration at path over domain.DefaultConfig, resolves
// API keys from the environment and validates the result.
//
// An empty path searches DefaultFileNames in the working directory and falls
// back to defaults when none exists. A .env file next to the config (or in
// the working directory) is loaded first; variables already set win.
// Relative paths in the file are resolved against the file's directory.
func Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	if path == "" {
		path = findDefault()
	}
	baseDir := "."
	if path != "" {
		baseDir = filepath.Dir(path)
	}
	loadDotEnv(baseDir)

	// Provider-specific defaults are re-derived after decoding so that
	// switching provider does not keep another provider's model.
	cfg.LLM.Model, cfg.LLM.APIKeyEnv = "", ""
	cfg.Embedding.Model, cfg.Embedding.APIKeyEnv = "", ""

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return domain.Config{}, err
		}
		logger.Debug("loaded config from %s", path)
	}

	applyProviderDefaults(&cfg)
	resolvePaths(&cfg, baseDir)
	resolveAPIKeys(&cfg)

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("config %s: %w", displayPath(path), err)
	}
	return cfg, nil
}

func findDefault() string {
	for _, name := range DefaultFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func loadDotEnv(dir string) {
	candidates := []string{filepath.Join(dir, ".env")}
	if dir != "." {
		candidates = append(candidates, ".env")
	}
	for _, p := range candidates {
		if err := godotenv.Load(p); err == nil {
			logger.Debug("loaded environment from %s", p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("reading %s: %v", p, err)
		}
	}
}

// decodeFile decodes by extension. Unknown keys are rejected so typos in
// the file surface as errors.
func decodeFile(path string, cfg *domain.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidConfig, path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidConfig, path, err)
		}
	default:
		return fmt.Errorf("%w: config format %q", domain.ErrUnsupportedType, ext)
	}
	return nil
}

func applyProviderDefaults(cfg *domain.Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = domain.DefaultLLMModels()[cfg.LLM.Provider]
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = domain.DefaultAPIKeyEnv()[cfg.LLM.Provider]
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = domain.DefaultEmbeddingModels()[cfg.Embedding.Provider]
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = domain.DefaultAPIKeyEnv()[cfg.Embedding.Provider]
	}
}

func resolvePaths(cfg *domain.Config, baseDir string) {
	if cfg.Paths.PromptDir == "" {
		cfg.Paths.PromptDir = "prompts"
	}
	for _, p := range []*string{&cfg.Paths.SourceDir, &cfg.Paths.IndexDir, &cfg.Paths.PromptDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}

func resolveAPIKeys(cfg *domain.Config) {
	if cfg.LLM.APIKeyEnv != "" {
		cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}
	if cfg.Embedding.APIKeyEnv != "" {
		cfg.Embedding.APIKey = os.Getenv(cfg.Embedding.APIKeyEnv)
	}
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
