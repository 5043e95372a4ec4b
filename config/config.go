package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultWALDir   = "./wal/ledger"
	defaultHTTPAddr = ":8080"
	defaultLogLevel = "info"
	defaultCurrency = "USD"
	defaultRetries  = 3

	walDirEnv = "FUNDLEDGER_WAL_DIR"
)

type Config struct {
	WALDir              string
	WALSegmentThreshold int
	WALMaxSegments      int
	WALRetries          int
	HTTPAddr            string
	TLSDomain           string
	TLSCacheDir         string
	LogLevel            string
	Currency            string
}

// ConfigTmp mirrors the file layout. Numbers are strings so an empty value
// means "use the default".
type ConfigTmp struct {
	WALDir              string `yaml:"wal_dir" toml:"wal_dir"`
	WALSegmentThreshold string `yaml:"wal_segment_threshold,omitempty" toml:"wal_segment_threshold,omitempty"`
	WALMaxSegments      string `yaml:"wal_max_segments,omitempty" toml:"wal_max_segments,omitempty"`
	WALRetries          string `yaml:"wal_retries,omitempty" toml:"wal_retries,omitempty"`
	HTTPAddr            string `yaml:"http_addr" toml:"http_addr"`
	TLSDomain           string `yaml:"tls_domain,omitempty" toml:"tls_domain,omitempty"`
	TLSCacheDir         string `yaml:"tls_cache_dir,omitempty" toml:"tls_cache_dir,omitempty"`
	LogLevel            string `yaml:"log_level" toml:"log_level"`
	Currency            string `yaml:"currency" toml:"currency"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		WALDir:     defaultWALDir,
		WALRetries: defaultRetries,
		HTTPAddr:   defaultHTTPAddr,
		LogLevel:   defaultLogLevel,
		Currency:   defaultCurrency,
	}
	applyEnv(&cfg)
	return cfg
}

// Load reads a .yaml/.yml or .toml file. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	var tmp ConfigTmp
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(raw, &tmp); err != nil {
			return Config{}, errors.Wrap(err, "decode toml config")
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(raw, &tmp); err != nil {
			return Config{}, errors.Wrap(err, "decode yaml config")
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	return fromTmp(tmp)
}

func fromTmp(c ConfigTmp) (Config, error) {
	cfg := Default()
	if c.WALDir != "" {
		cfg.WALDir = c.WALDir
	}
	if c.HTTPAddr != "" {
		cfg.HTTPAddr = c.HTTPAddr
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.Currency != "" {
		cfg.Currency = strings.ToUpper(c.Currency)
	}
	cfg.TLSDomain = c.TLSDomain
	cfg.TLSCacheDir = c.TLSCacheDir

	ints := []struct {
		name  string
		value string
		dst   *int
	}{
		{"wal_segment_threshold", c.WALSegmentThreshold, &cfg.WALSegmentThreshold},
		{"wal_max_segments", c.WALMaxSegments, &cfg.WALMaxSegments},
		{"wal_retries", c.WALRetries, &cfg.WALRetries},
	}
	for _, field := range ints {
		if field.value == "" {
			continue
		}
		n, err := strconv.Atoi(field.value)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("incorrect '%s' param in config (must be a non-negative integer): %q", field.name, field.value)
		}
		*field.dst = n
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dir := os.Getenv(walDirEnv); dir != "" {
		cfg.WALDir = dir
	}
}

// Validate checks values that can't be caught while decoding.
func (c Config) Validate() error {
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("incorrect 'log_level' param in config: %w", err)
	}
	if money.GetCurrency(c.Currency) == nil {
		return fmt.Errorf("incorrect 'currency' param in config: unknown currency %q", c.Currency)
	}
	if c.WALDir == "" {
		return errors.New("'wal_dir' must not be empty")
	}
	return nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg Config) error {
	tmp := ConfigTmp{
		WALDir:      cfg.WALDir,
		HTTPAddr:    cfg.HTTPAddr,
		TLSDomain:   cfg.TLSDomain,
		TLSCacheDir: cfg.TLSCacheDir,
		LogLevel:    cfg.LogLevel,
		Currency:    cfg.Currency,
	}
	if cfg.WALSegmentThreshold > 0 {
		tmp.WALSegmentThreshold = strconv.Itoa(cfg.WALSegmentThreshold)
	}
	if cfg.WALMaxSegments > 0 {
		tmp.WALMaxSegments = strconv.Itoa(cfg.WALMaxSegments)
	}
	if cfg.WALRetries > 0 {
		tmp.WALRetries = strconv.Itoa(cfg.WALRetries)
	}

	raw, err := yaml.Marshal(tmp)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, raw, 0o644), "write config")
}
