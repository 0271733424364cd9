package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/winnow/internal/configs/env"
)

const (
	DefaultKGrams = 30
	DefaultWindow = 29
)

// Config holds all configuration for the application
type Config struct {
	// Winnowing
	KGrams             int
	WindowSize         int
	StopWords          []string
	StopWordsFile      string
	StopWordsPreset    string
	StrictFingerprints bool
	Parallel           bool

	// Redis
	RedisHost     string
	RedisPassword string
	StatusTTL     time.Duration

	// JWT
	JWTSecret string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentCompute int

	// Computation
	ComputationTimeout time.Duration
	MaxDocuments       int
	MaxRequestBytes    int64

	// Logging
	LogLevel string

	// Server
	ServerPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Winnowing
	cfg.KGrams = env.GetEnvInt("K_GRAMS", DefaultKGrams)
	cfg.WindowSize = env.GetEnvInt("WINDOW_SIZE", DefaultWindow)
	cfg.StopWords = env.GetEnvList("STOP_WORDS", nil)
	cfg.StopWordsFile = env.GetEnv("STOP_WORDS_FILE", "")
	cfg.StopWordsPreset = env.GetEnv("STOP_WORDS_PRESET", "")
	cfg.StrictFingerprints = env.GetEnvBool("STRICT_FINGERPRINTS", false)
	cfg.Parallel = env.GetEnvBool("PARALLEL_FINGERPRINTING", true)

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.StatusTTL = time.Duration(env.GetEnvInt("STATUS_TTL_HOURS", 12)) * time.Hour

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentCompute = env.GetEnvInt("MAX_CONCURRENT_COMPUTE", 5)

	// Computation
	timeoutSeconds := env.GetEnvInt("COMPUTATION_TIMEOUT_SECONDS", 60)
	cfg.ComputationTimeout = time.Duration(timeoutSeconds) * time.Second
	cfg.MaxDocuments = env.GetEnvInt("MAX_DOCUMENTS", 500)
	cfg.MaxRequestBytes = int64(env.GetEnvInt("MAX_REQUEST_BYTES", 10<<20))

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")

	return cfg, nil
}

// Validate checks the settings shared by the CLI and the server
func (c *Config) Validate() error {
	if c.KGrams < 1 {
		return fmt.Errorf("K_GRAMS must be at least 1")
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("WINDOW_SIZE must be at least 1")
	}
	if c.StopWordsPreset != "" {
		if _, ok := Preset(c.StopWordsPreset); !ok {
			return fmt.Errorf("STOP_WORDS_PRESET %q is not a known preset", c.StopWordsPreset)
		}
	}
	if c.StatusTTL <= 0 {
		return fmt.Errorf("STATUS_TTL_HOURS must be greater than 0")
	}
	return nil
}

// ValidateServer additionally checks what the HTTP service needs
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	if c.MaxConcurrentCompute <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPUTE must be greater than 0")
	}
	if c.ComputationTimeout <= 0 {
		return fmt.Errorf("COMPUTATION_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.MaxDocuments < 2 {
		return fmt.Errorf("MAX_DOCUMENTS must be at least 2")
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BYTES must be greater than 0")
	}
	return nil
}

// ResolveStopWords merges the preset, the stop-word file and the inline
// list, in that order
func (c *Config) ResolveStopWords() ([]string, error) {
	var lists [][]string

	if c.StopWordsPreset != "" {
		words, ok := Preset(c.StopWordsPreset)
		if !ok {
			return nil, fmt.Errorf("unknown stop-word preset %q", c.StopWordsPreset)
		}
		lists = append(lists, words)
	}

	if c.StopWordsFile != "" {
		words, err := LoadStopWords(c.StopWordsFile)
		if err != nil {
			return nil, err
		}
		lists = append(lists, words)
	}

	lists = append(lists, c.StopWords)
	return MergeStopWords(lists...), nil
}
