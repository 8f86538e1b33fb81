// Package config loads store settings with spf13/viper: an optional config
// file (YAML, JSON, TOML) overlaid by BR_CACHE_* environment variables.
//
//	BR_CACHE_PREFIX               key prefix ("br-")
//	BR_CACHE_DISABLE_PREFIX       physical keys == logical keys
//	BR_CACHE_COMPRESS             enable compression (true)
//	BR_CACHE_COMPRESS_THRESHOLD   KiB, float (1)
//	BR_CACHE_COMPRESSOR           brotli | zstd | s2 | zlib (brotli)
//	BR_CACHE_COMPRESS_QUALITY     algorithm quality (6)
//	BR_CACHE_DEFAULT_TTL          duration, e.g. "10m" (none)
//	BR_CACHE_NAMESPACE            forwarded to the provider
//	BR_CACHE_ENCODE_WORKERS       batch encode parallelism (GOMAXPROCS)
//
// Configuration is read once at startup; the resulting Options never change.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/unkn0wn-root/brcache"
	cmp "github.com/unkn0wn-root/brcache/compress"
	pr "github.com/unkn0wn-root/brcache/provider"
)

const EnvPrefix = "BR_CACHE"

type Config struct {
	Prefix        string `mapstructure:"prefix"`
	DisablePrefix bool   `mapstructure:"disable_prefix"`

	Compress bool `mapstructure:"compress"`
	// CompressThreshold is in KiB; fractions are allowed (0.5 = 512 bytes).
	CompressThreshold float64 `mapstructure:"compress_threshold"`
	Compressor        string  `mapstructure:"compressor"`
	CompressQuality   int     `mapstructure:"compress_quality"`

	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	Namespace     string        `mapstructure:"namespace"`
	EncodeWorkers int           `mapstructure:"encode_workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Prefix:            brcache.DefaultPrefix,
		Compress:          true,
		CompressThreshold: 1,
		Compressor:        "brotli",
		CompressQuality:   cmp.DefaultQuality,
	}
}

// Load reads path (skipped when empty) and applies environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromReader is Load for an in-memory document of the given type
// ("yaml", "json", "toml").
func LoadFromReader(r io.Reader, typ string) (*Config, error) {
	v := newViper()
	v.SetConfigType(typ)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// every key needs a default so AutomaticEnv reaches it through Unmarshal
	d := DefaultConfig()
	v.SetDefault("prefix", d.Prefix)
	v.SetDefault("disable_prefix", d.DisablePrefix)
	v.SetDefault("compress", d.Compress)
	v.SetDefault("compress_threshold", d.CompressThreshold)
	v.SetDefault("compressor", d.Compressor)
	v.SetDefault("compress_quality", d.CompressQuality)
	v.SetDefault("default_ttl", d.DefaultTTL)
	v.SetDefault("namespace", d.Namespace)
	v.SetDefault("encode_workers", d.EncodeWorkers)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.CompressThreshold < 0 || math.IsNaN(c.CompressThreshold) || math.IsInf(c.CompressThreshold, 0) {
		errs = append(errs, fmt.Errorf("compress_threshold must be a finite value >= 0, got %v", c.CompressThreshold))
	}
	if c.DefaultTTL < 0 {
		errs = append(errs, fmt.Errorf("default_ttl must be >= 0, got %v", c.DefaultTTL))
	}
	if c.EncodeWorkers < 0 {
		errs = append(errs, fmt.Errorf("encode_workers must be >= 0, got %d", c.EncodeWorkers))
	}
	if comp, err := cmp.ByName(c.Compressor, c.CompressQuality); err != nil {
		errs = append(errs, err)
	} else {
		closeCompressor(comp)
	}
	return errors.Join(errs...)
}

// ThresholdBytes converts the KiB threshold. Zero compresses every payload.
func (c *Config) ThresholdBytes() int {
	n := int(math.Round(c.CompressThreshold * 1024))
	if n < 1 {
		return 1
	}
	return n
}

// Options builds store options for p. The caller keeps codec, logger and hook
// choices; set them on the result.
func Options[V any](c *Config, p pr.Provider) (brcache.Options[V], error) {
	if err := c.Validate(); err != nil {
		return brcache.Options[V]{}, err
	}
	comp, err := cmp.ByName(c.Compressor, c.CompressQuality)
	if err != nil {
		return brcache.Options[V]{}, err
	}
	return brcache.Options[V]{
		Provider:           p,
		Compressor:         comp,
		Prefix:             c.Prefix,
		DisablePrefix:      c.DisablePrefix,
		CompressThreshold:  c.ThresholdBytes(),
		DisableCompression: !c.Compress,
		DefaultTTL:         c.DefaultTTL,
		Namespace:          c.Namespace,
		EncodeWorkers:      c.EncodeWorkers,
	}, nil
}

func closeCompressor(c cmp.Compressor) {
	if cl, ok := c.(io.Closer); ok {
		_ = cl.Close()
	}
}
