package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "quoted", cfg.Temporal.TaskQueue)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, uint64(1024), cfg.Qdrant.VectorSize)
	assert.Equal(t, "production", cfg.Autogen.Mode)
	assert.Equal(t, 2, cfg.Autogen.RetentionThreshold)
	assert.Equal(t, float32(0.3), cfg.Similarity.Threshold)
	assert.Equal(t, 100, cfg.Trending.Window)
	assert.Equal(t, 3, cfg.Trending.TopN)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: postgres
  dsn: postgres://localhost/quoted
autogen:
  mode: fast
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "fast", cfg.Autogen.Mode)
	// Untouched sections still get defaults.
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults pass", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("bad database driver", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "mysql"
		assert.ErrorContains(t, cfg.Validate(), "database driver")
	})

	t.Run("bad autogen mode", func(t *testing.T) {
		cfg := valid()
		cfg.Autogen.Mode = "turbo"
		assert.ErrorContains(t, cfg.Validate(), "autogen mode")
	})

	t.Run("similarity threshold out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Similarity.Threshold = 1.5
		assert.ErrorContains(t, cfg.Validate(), "threshold")
	})

	t.Run("missing temporal host", func(t *testing.T) {
		cfg := valid()
		cfg.Temporal.HostPort = ""
		assert.ErrorContains(t, cfg.Validate(), "host_port")
	})
}
