package setup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wpselfhosted/wpdeploy/internal/models"
)

// DefaultConfigFile is read from the working directory when no --config is given.
const DefaultConfigFile = ".wpdeploy.yaml"

// Environment variables that override file values.
const (
	EnvType               = "WPDEPLOY_TYPE"
	EnvSlug               = "WPDEPLOY_SLUG"
	EnvPath               = "WPDEPLOY_PATH"
	EnvInsecureSkipVerify = "WPDEPLOY_INSECURE_SKIP_VERIFY"
	EnvTimeout            = "WPDEPLOY_TIMEOUT"
)

// Options are the run settings that do not identify the remote account.
type Options struct {
	Type               string
	Slug               string
	Path               string
	InsecureSkipVerify bool
	Timeout            time.Duration
	LogLevel           string
	LogFormat          string
}

// FileConfig is the on-disk shape of a config file.
type FileConfig struct {
	Type               string `yaml:"type"`
	Slug               string `yaml:"slug"`
	Path               string `yaml:"path"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify"`
	Timeout            string `yaml:"timeout"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
}

// Defaults returns the options used when nothing else is configured.
// Path defaults to the current working directory.
func Defaults() Options {
	path, err := os.Getwd()
	if err != nil {
		path = "."
	}
	return Options{
		Path:      path,
		Timeout:   models.DefaultTimeout,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadFile reads a YAML config file. When optional is true a missing file
// yields an empty FileConfig.
func LoadFile(path string, optional bool) (FileConfig, error) {
	var cfg FileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	getLogger().Debug("loaded config file", "path", path)
	return cfg, nil
}

// ApplyFile overlays non-empty file values onto o.
func (o *Options) ApplyFile(cfg FileConfig) error {
	setString(&o.Type, cfg.Type)
	setString(&o.Slug, cfg.Slug)
	setString(&o.Path, cfg.Path)
	setString(&o.LogLevel, cfg.LogLevel)
	setString(&o.LogFormat, cfg.LogFormat)
	if cfg.InsecureSkipVerify != nil {
		o.InsecureSkipVerify = *cfg.InsecureSkipVerify
	}
	if cfg.Timeout != "" {
		timeout, err := parseTimeout(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		o.Timeout = timeout
	}
	return nil
}

// ApplyEnv overlays environment values found through lookup onto o.
func (o *Options) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvType); ok {
		setString(&o.Type, v)
	}
	if v, ok := lookup(EnvSlug); ok {
		setString(&o.Slug, v)
	}
	if v, ok := lookup(EnvPath); ok {
		setString(&o.Path, v)
	}
	if v, ok := lookup(EnvInsecureSkipVerify); ok && strings.TrimSpace(v) != "" {
		insecure, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInsecureSkipVerify, err)
		}
		o.InsecureSkipVerify = insecure
	}
	if v, ok := lookup(EnvTimeout); ok && strings.TrimSpace(v) != "" {
		timeout, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		o.Timeout = timeout
	}
	return nil
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func parseTimeout(value string) (time.Duration, error) {
	timeout, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	return timeout, nil
}
