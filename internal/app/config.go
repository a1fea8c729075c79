package app

import "errors"

// Config holds everything an App instance needs to run one compile.
type Config struct {
	EntryPath   string
	Targets     []string
	OutputDir   string
	RegistryURL string
	NoValidate  bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates and returns the configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.EntryPath == "" {
		return nil, errors.New("EntryPath is a required configuration field and cannot be empty")
	}
	if len(cfg.Targets) == 0 {
		return nil, errors.New("at least one output target is required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &cfg, nil
}
