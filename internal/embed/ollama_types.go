package embed

import "time"

// Default Ollama connection settings.
const (
	DefaultOllamaHost    = "http://localhost:11434"
	OllamaConnectTimeout = 5 * time.Second
	OllamaPoolSize       = 4
)

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API base URL.
	Host string

	// Model is the embedding model name.
	Model string

	// Dimensions is the expected embedding dimension (0 = auto-detect).
	Dimensions int

	// BatchSize is how many texts are sent per request.
	BatchSize int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the number of attempts per batch.
	MaxRetries int

	// SkipHealthCheck skips the startup connectivity check (tests).
	SkipHealthCheck bool

	// ProgressFunc, if set, receives (completed, total) after each batch.
	ProgressFunc func(completed, total int)
}

// OllamaEmbedRequest is the request body for /api/embed.
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string
}

// OllamaEmbedResponse is the response body from /api/embed.
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaModelInfo describes one model from /api/tags.
type OllamaModelInfo struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
}

// OllamaModelListResponse is the response body from /api/tags.
type OllamaModelListResponse struct {
	Models []OllamaModelInfo `json:"models"`
}
