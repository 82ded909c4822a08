package config

// ClassifierConfig selects the classification implementation.
type ClassifierConfig struct {
	Provider string
}

// BackendConfig holds the REST classification backend settings.
type BackendConfig struct {
	URL string
}

// OpenAIConfig holds the direct-LLM classifier settings.
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// ScannerConfig holds the extraction limits and allow-list.
type ScannerConfig struct {
	SafeDomains []string
	MaxLinks    int
	MaxBodySize int
	MaxLinkText int
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider: c.GetString("classifier.provider"),
	}
}

// GetBackend returns the backend configuration
func (c *Config) GetBackend() BackendConfig {
	return BackendConfig{
		URL: c.GetString("backend.url"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetScanner returns the scanner configuration
func (c *Config) GetScanner() ScannerConfig {
	return ScannerConfig{
		SafeDomains: c.GetStringSlice("scanner.safe_domains"),
		MaxLinks:    c.GetInt("scanner.max_links"),
		MaxBodySize: c.GetInt("scanner.max_body_size"),
		MaxLinkText: c.GetInt("scanner.max_link_text"),
	}
}
