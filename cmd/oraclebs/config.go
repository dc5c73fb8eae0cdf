package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/oraclebs/internal/oracle"
	"github.com/danmuck/oraclebs/internal/search"
	"github.com/danmuck/oraclebs/internal/transport"
)

const (
	FramingMarkers   = "markers"
	FramingDelimiter = "delimiter"
)

var ErrUnknownFraming = errors.New("oraclebs: unknown framing")

// runConfig is everything one recovery run needs.
type runConfig struct {
	Target      transport.Target
	Transport   transport.Config
	Oracle      oracle.Config
	Search      search.Config
	Framing     string
	Delimiter   string
	MetricsFile string
	LogLevel    string
}

func defaultRunConfig() runConfig {
	return runConfig{
		Transport: transport.DefaultConfig(),
		Oracle:    oracle.DefaultConfig(),
		Search:    search.DefaultConfig(),
		Framing:   FramingMarkers,
		Delimiter: ": ",
	}
}

func (c runConfig) validate() error {
	switch c.Framing {
	case FramingMarkers:
	case FramingDelimiter:
		if c.Delimiter == "" {
			return fmt.Errorf("%w: delimiter framing needs a delimiter", ErrUnknownFraming)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFraming, c.Framing)
	}
	return nil
}

type fileConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	Bin            string   `toml:"bin"`
	Args           []string `toml:"args"`
	Verbose        bool     `toml:"verbose"`
	ConnectTimeout string   `toml:"connect_timeout"`
	PromptTimeout  string   `toml:"prompt_timeout"`
	GuessTimeout   string   `toml:"guess_timeout"`
	MaxSteps       int      `toml:"max_steps"`
	Framing        string   `toml:"framing"`
	Delimiter      string   `toml:"delimiter"`
	MetricsFile    string   `toml:"metrics_file"`
	LogLevel       string   `toml:"log_level"`
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load oraclebs config: %w", err)
	}

	if meta.IsDefined("host") {
		cfg.Target.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Target.Port = raw.Port
	}
	if meta.IsDefined("bin") {
		cfg.Target.Bin = strings.TrimSpace(raw.Bin)
	}
	if meta.IsDefined("args") {
		cfg.Target.Args = append([]string(nil), raw.Args...)
	}
	if meta.IsDefined("verbose") {
		cfg.Search.Verbose = raw.Verbose
	}

	if meta.IsDefined("connect_timeout") {
		d, err := parseDuration("connect_timeout", raw.ConnectTimeout)
		if err != nil {
			return runConfig{}, err
		}
		cfg.Transport.ConnectTimeout = d
	}
	if meta.IsDefined("prompt_timeout") {
		d, err := parseDuration("prompt_timeout", raw.PromptTimeout)
		if err != nil {
			return runConfig{}, err
		}
		cfg.Oracle.PromptTimeout = d
	}
	if meta.IsDefined("guess_timeout") {
		d, err := parseDuration("guess_timeout", raw.GuessTimeout)
		if err != nil {
			return runConfig{}, err
		}
		cfg.Oracle.GuessTimeout = d
	}

	if meta.IsDefined("max_steps") {
		cfg.Search.MaxSteps = raw.MaxSteps
	}
	if meta.IsDefined("framing") {
		cfg.Framing = strings.ToLower(strings.TrimSpace(raw.Framing))
	}
	if meta.IsDefined("delimiter") {
		cfg.Delimiter = raw.Delimiter
	}
	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = strings.TrimSpace(raw.MetricsFile)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	return cfg, cfg.validate()
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s: must be positive, got %s", key, d)
	}
	return d, nil
}
