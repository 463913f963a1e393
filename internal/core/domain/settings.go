package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderLocal is the built-in offline hashing embedder.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if the provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p != AIProviderAnthropic && p.IsValid()
}

// SupportsChat returns true if the provider can generate answers.
func (p AIProvider) SupportsChat() bool {
	return p != AIProviderLocal && p.IsValid()
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderLocal:
		return "Local hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `toml:"provider" yaml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model" yaml:"model"`

	// BaseURL overrides the API endpoint.
	BaseURL string `toml:"base_url" yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env"`

	// APIKey is resolved from APIKeyEnv at load time and never written to disk.
	APIKey string `toml:"-" yaml:"-"`

	// Dimensions is the vector size; zero means the model default.
	Dimensions int `toml:"dimensions" yaml:"dimensions"`

	// BatchSize is the number of texts embedded per request.
	BatchSize int `toml:"batch_size" yaml:"batch_size"`

	// RequestsPerSecond throttles embedding requests; zero disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `toml:"provider" yaml:"provider"`

	// Model is the LLM model name.
	Model string `toml:"model" yaml:"model"`

	// BaseURL overrides the API endpoint.
	BaseURL string `toml:"base_url" yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env"`

	// APIKey is resolved from APIKeyEnv at load time and never written to disk.
	APIKey string `toml:"-" yaml:"-"`

	// TimeoutSeconds bounds a single model call.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.SupportsChat() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
		AIProviderLocal:  "hashing-512",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// DefaultAPIKeyEnv returns the conventional environment variable per provider.
func DefaultAPIKeyEnv() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    "OPENAI_API_KEY",
		AIProviderAnthropic: "ANTHROPIC_API_KEY",
		AIProviderGemini:    "GEMINI_API_KEY",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		// Built-in
		"hashing-512": 512,
	}
}

// ServiceStatus reports the reachability of one configured AI service.
type ServiceStatus struct {
	// Service is "embedding" or "llm".
	Service  string
	Provider AIProvider
	Model    string

	// Err is nil when the service was created and answered a ping.
	Err error
}

// OK returns true if the service is usable.
func (s ServiceStatus) OK() bool {
	return s.Err == nil
}
