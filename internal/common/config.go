package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/charta/internal/interfaces"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	Storage    StorageConfig    `toml:"storage"`
	Artifacts  ArtifactsConfig  `toml:"artifacts"`
	OCR        OCRConfig        `toml:"ocr"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Claude     ClaudeConfig     `toml:"claude"`
	Extraction ExtractionConfig `toml:"extraction"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Processing ProcessingConfig `toml:"processing"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output"`
}

type StorageConfig struct {
	Dir             string `toml:"dir"`
	ResetOnStartup  bool   `toml:"reset_on_startup"`
	BackupOnStartup bool   `toml:"backup_on_startup"`
}

// ArtifactsConfig controls where pipeline artifacts (OCR markdown,
// searchable PDF, extraction CSVs) are written on disk.
type ArtifactsConfig struct {
	Dir string `toml:"dir"`
}

type OCRConfig struct {
	// Backend selects the OCR implementation: docintel, tesseract or vision
	Backend string `toml:"backend" validate:"oneof=docintel tesseract vision"`

	DocIntel  DocIntelConfig  `toml:"docintel"`
	Tesseract TesseractConfig `toml:"tesseract"`
	Vision    VisionConfig    `toml:"vision"`
}

type DocIntelConfig struct {
	Endpoint    string `toml:"endpoint"`
	APIKey      string `toml:"api_key"`
	PollSeconds int    `toml:"poll_seconds"`
	MaxPolls    int    `toml:"max_polls"`
}

type TesseractConfig struct {
	Languages []string `toml:"languages"`
	Workers   int      `toml:"workers" validate:"min=0,max=32"`
}

type VisionConfig struct {
	Model string `toml:"model"`
}

type GeminiConfig struct {
	APIKey            string  `toml:"api_key"`
	DefaultModel      string  `toml:"default_model"`
	EmbeddingModel    string  `toml:"embedding_model"`
	RequestsPerMinute float64 `toml:"requests_per_minute"`
}

type ClaudeConfig struct {
	APIKey            string  `toml:"api_key"`
	DefaultModel      string  `toml:"default_model"`
	RequestsPerMinute float64 `toml:"requests_per_minute"`
}

type ExtractionConfig struct {
	// Model used for both extraction passes; provider is detected from
	// the model name prefix.
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `toml:"max_tokens"`
}

type RetrievalConfig struct {
	ChunkSize     int     `toml:"chunk_size" validate:"min=1"`
	ChunkOverlap  int     `toml:"chunk_overlap" validate:"min=0"`
	TopK          int     `toml:"top_k" validate:"min=1"`
	MinSimilarity float64 `toml:"min_similarity"`
	Dimension     int     `toml:"dimension"`
	AnswerModel   string  `toml:"answer_model"`
}

type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
}

// NewDefaultConfig returns a Config populated with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8085,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Dir:            "./data/charta.db",
			ResetOnStartup: false,
		},
		Artifacts: ArtifactsConfig{
			Dir: "./data",
		},
		OCR: OCRConfig{
			Backend: "docintel",
			DocIntel: DocIntelConfig{
				PollSeconds: 2,
				MaxPolls:    60,
			},
			Tesseract: TesseractConfig{
				Languages: []string{"eng"},
				Workers:   4,
			},
			Vision: VisionConfig{
				Model: "gemini-2.5-flash",
			},
		},
		Gemini: GeminiConfig{
			DefaultModel:      "gemini-2.5-flash",
			EmbeddingModel:    "gemini-embedding-001",
			RequestsPerMinute: 10,
		},
		Claude: ClaudeConfig{
			DefaultModel:      "claude-sonnet-4-20250514",
			RequestsPerMinute: 10,
		},
		Extraction: ExtractionConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.1,
			MaxTokens:   8192,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:     500,
			ChunkOverlap:  100,
			TopK:          3,
			MinSimilarity: 0.0,
			Dimension:     768,
			AnswerModel:   "gemini-2.5-flash",
		},
		Processing: ProcessingConfig{
			Enabled:  false,
			Schedule: "@every 10m",
		},
	}
}

// LoadFromFiles loads configuration by merging defaults with the given
// TOML files in order. Missing files are skipped; parse errors are fatal.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FindDefaultConfigs returns config files discovered next to the
// executable and in the working directory, in merge order.
func FindDefaultConfigs() []string {
	var paths []string

	if execPath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(execPath), "charta.toml"))
	}
	paths = append(paths, "./charta.toml", "./config.toml")

	var found []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	return found
}

// applyEnvOverrides applies CHARTA_* environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHARTA_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("CHARTA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CHARTA_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CHARTA_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("CHARTA_ARTIFACTS_DIR"); v != "" {
		c.Artifacts.Dir = v
	}
	if v := os.Getenv("CHARTA_OCR_BACKEND"); v != "" {
		c.OCR.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CHARTA_DOCINTEL_ENDPOINT"); v != "" {
		c.OCR.DocIntel.Endpoint = v
	}
	if v := os.Getenv("CHARTA_DOCINTEL_API_KEY"); v != "" {
		c.OCR.DocIntel.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Claude.APIKey = v
	}
}

// FlagOverrides holds CLI flag values that take precedence over file
// and environment configuration.
type FlagOverrides struct {
	Port       int
	LogLevel   string
	OCRBackend string
	DataDir    string
}

// ApplyFlagOverrides applies non-zero flag values to the config
func (c *Config) ApplyFlagOverrides(flags FlagOverrides) {
	if flags.Port > 0 {
		c.Server.Port = flags.Port
	}
	if flags.LogLevel != "" {
		c.Logging.Level = strings.ToLower(flags.LogLevel)
	}
	if flags.OCRBackend != "" {
		c.OCR.Backend = strings.ToLower(flags.OCRBackend)
	}
	if flags.DataDir != "" {
		c.Artifacts.Dir = flags.DataDir
	}
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("invalid configuration: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Retrieval.ChunkOverlap, c.Retrieval.ChunkSize)
	}
	return nil
}

// ResolveAPIKey resolves an API key by precedence: environment variable
// (the key name uppercased), key-value store, then config file value.
// A missing key is not an error; callers decide whether an empty key
// disables their component.
func ResolveAPIKey(ctx context.Context, kv interfaces.KeyValueStorage, key string, configValue string) (string, error) {
	if v := os.Getenv(strings.ToUpper(key)); v != "" {
		return v, nil
	}
	if kv != nil {
		if v, err := kv.Get(ctx, key); err == nil && v != "" {
			return v, nil
		}
	}
	return configValue, nil
}
