// Package config provides configuration loading for quoted.
//
// Configuration is read from a YAML file and overridden by environment
// variables. See Load for the precedence rules and variable mapping.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/quoted/internal/logging"
)

// Config holds the complete quoted configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Temporal   TemporalConfig   `koanf:"temporal"`
	Qdrant     QdrantConfig     `koanf:"qdrant"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	OpenAI     OpenAIConfig     `koanf:"openai"`
	Tags       TagsConfig       `koanf:"tags"`
	Trending   TrendingConfig   `koanf:"trending"`
	Autogen    AutogenConfig    `koanf:"autogen"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Logging    logging.Config   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds relational store configuration.
type DatabaseConfig struct {
	// Driver selects the backend: "sqlite" or "postgres".
	Driver string `koanf:"driver"`
	// Path is the SQLite database file. Ignored for postgres.
	Path string `koanf:"path"`
	// DSN is the postgres connection string. Ignored for sqlite.
	DSN             string        `koanf:"dsn"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// TemporalConfig holds the durable workflow engine connection.
type TemporalConfig struct {
	HostPort  string `koanf:"host_port"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// QdrantConfig holds the vector index connection. Port is the gRPC port
// (6334), not the HTTP REST port.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Collection string `koanf:"collection"`
	VectorSize uint64 `koanf:"vector_size"`
	UseTLS     bool   `koanf:"use_tls"`
	APIKey     string `koanf:"api_key"`
}

// EmbeddingsConfig holds the embedding endpoint. Any OpenAI-compatible
// server works (TEI or the OpenAI API itself).
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  string `koanf:"api_key"`
}

// OpenAIConfig holds the generative-call credentials. An empty APIKey
// disables moderation; generation still requires it.
type OpenAIConfig struct {
	APIKey          string `koanf:"api_key"`
	Model           string `koanf:"model"`
	ModerationModel string `koanf:"moderation_model"`
}

// TagsConfig locates the canonical tag vocabulary file.
type TagsConfig struct {
	Path string `koanf:"path"`
}

// TrendingConfig holds the snapshot store and aggregation window.
type TrendingConfig struct {
	// Path is the Badger directory for the snapshot store.
	Path string `koanf:"path"`
	// InMemory runs the snapshot store without disk persistence. For tests.
	InMemory bool `koanf:"in_memory"`
	// Window is how many recent like events feed the snapshot.
	Window int `koanf:"window"`
	// TopN is how many quotes the snapshot retains.
	TopN int `koanf:"top_n"`
}

// AutogenConfig parameterizes the self-generation pipeline.
type AutogenConfig struct {
	// Mode selects the evaluation delay: production, debug, or fast.
	Mode string `koanf:"mode"`
	// RetentionThreshold is the minimum post-evaluation score a generated
	// quote needs to survive.
	RetentionThreshold int `koanf:"retention_threshold"`
}

// SimilarityConfig holds the nearest-neighbor query shape.
type SimilarityConfig struct {
	// Threshold is the minimum relevance score for a match to count.
	Threshold      float32 `koanf:"threshold"`
	ContentTopK    int     `koanf:"content_top_k"`
	CategoriesTopK int     `koanf:"categories_top_k"`
	MaxResults     int     `koanf:"max_results"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver %q (want sqlite or postgres)", c.Database.Driver)
	}
	if c.Temporal.HostPort == "" {
		return errors.New("temporal host_port is required")
	}
	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("invalid qdrant port: %d", c.Qdrant.Port)
	}
	switch c.Autogen.Mode {
	case "production", "debug", "fast":
	default:
		return fmt.Errorf("invalid autogen mode %q (want production, debug, or fast)", c.Autogen.Mode)
	}
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold >= 1 {
		return fmt.Errorf("similarity threshold %v out of range [0,1)", c.Similarity.Threshold)
	}
	if c.Trending.Window <= 0 || c.Trending.TopN <= 0 {
		return errors.New("trending window and top_n must be positive")
	}
	return c.Logging.Validate()
}
