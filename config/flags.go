package config

import (
	"flag"
)

// Flags holds command-line overrides registered on a flag set.
type Flags struct {
	path     *string
	walDir   *string
	logLevel *string
	currency *string
}

// RegisterFlags adds -config and the override flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		path:     fs.String("config", "", "path to yaml or toml config"),
		walDir:   fs.String("wal", "", "ledger WAL directory, overrides the config file"),
		logLevel: fs.String("log-level", "", "log level: debug, info, warn, error"),
		currency: fs.String("currency", "", "display currency, example: EUR"),
	}
}

// Path is the -config value.
func (f *Flags) Path() string {
	return *f.path
}

// Load reads the config file (if any) and applies flag overrides. Call after
// the flag set is parsed.
func (f *Flags) Load() (Config, error) {
	cfg, err := Load(*f.path)
	if err != nil {
		return Config{}, err
	}
	if *f.walDir != "" {
		cfg.WALDir = *f.walDir
	}
	if *f.logLevel != "" {
		cfg.LogLevel = *f.logLevel
	}
	if *f.currency != "" {
		cfg.Currency = *f.currency
	}
	return cfg, cfg.Validate()
}
