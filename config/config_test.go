package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/brcache"
	cmp "github.com/unkn0wn-root/brcache/compress"
	"github.com/unkn0wn-root/brcache/provider/memory"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 1024, cfg.ThresholdBytes())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.yaml")
	doc := `
prefix: "app-"
compress_threshold: 0.5
compressor: zstd
compress_quality: 3
default_ttl: 10m
namespace: users
encode_workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "app-", cfg.Prefix)
	assert.Equal(t, 512, cfg.ThresholdBytes())
	assert.Equal(t, "zstd", cfg.Compressor)
	assert.Equal(t, 3, cfg.CompressQuality)
	assert.Equal(t, 10*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, "users", cfg.Namespace)
	assert.Equal(t, 4, cfg.EncodeWorkers)
	assert.True(t, cfg.Compress)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BR_CACHE_COMPRESS_THRESHOLD", "2.5")
	t.Setenv("BR_CACHE_COMPRESS", "false")
	t.Setenv("BR_CACHE_PREFIX", "env-")
	t.Setenv("BR_CACHE_COMPRESSOR", "s2")

	cfg, err := LoadFromReader(strings.NewReader(`{"prefix": "file-"}`), "json")
	require.NoError(t, err)
	assert.Equal(t, "env-", cfg.Prefix)
	assert.Equal(t, 2560, cfg.ThresholdBytes())
	assert.False(t, cfg.Compress)
	assert.Equal(t, "s2", cfg.Compressor)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"negative threshold": func(c *Config) { c.CompressThreshold = -1 },
		"negative ttl":       func(c *Config) { c.DefaultTTL = -time.Second },
		"negative workers":   func(c *Config) { c.EncodeWorkers = -2 },
		"unknown compressor": func(c *Config) { c.Compressor = "lz4" },
		"brotli quality":     func(c *Config) { c.CompressQuality = 12 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())

	_, err := LoadFromReader(strings.NewReader("compressor: nope\n"), "yaml")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestOptionsBuildWorkingStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prefix = "cfg-"
	cfg.CompressThreshold = 0

	p := memory.New(memory.Config{})
	opts, err := Options[string](cfg, p)
	require.NoError(t, err)
	assert.Equal(t, 1, opts.CompressThreshold)
	assert.IsType(t, cmp.Brotli{}, opts.Compressor)
	assert.False(t, opts.DisableCompression)

	c, err := brcache.New[string](opts)
	require.NoError(t, err)
	v := strings.Repeat("payload ", 64)
	require.NoError(t, c.Write(context.Background(), "k", v))

	got, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, v, got)
	assert.Equal(t, "cfg-k", c.ExpandKey("k"))
}
