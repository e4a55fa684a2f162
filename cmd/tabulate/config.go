package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bjaus/tabulate"
)

// envPrefix is the environment variable prefix for settings.
const envPrefix = "TABULATE"

// renderConfig is the merged flag, environment and config file settings of
// the render command.
type renderConfig struct {
	Definition string        `mapstructure:"definition"`
	Query      string        `mapstructure:"query"`
	Driver     string        `mapstructure:"driver"`
	DSN        string        `mapstructure:"dsn"`
	Input      string        `mapstructure:"input"`
	Delimiter  string        `mapstructure:"delimiter"`
	Formats    []string      `mapstructure:"format"`
	Out        string        `mapstructure:"out"`
	CacheDir   string        `mapstructure:"cache-dir"`
	CacheTTL   time.Duration `mapstructure:"cache-ttl"`
	LogLevel   string        `mapstructure:"log-level"`
}

// loadConfig layers flags set on the command line over TABULATE_* environment
// variables, over the config file, over flag defaults.
func loadConfig(cmd *cobra.Command, configPath string) (*renderConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg renderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Env values arrive as one comma-separated string.
	var formats []string
	for _, f := range cfg.Formats {
		formats = append(formats, strings.Split(f, ",")...)
	}
	cfg.Formats = formats
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *renderConfig) validate() error {
	if c.Definition == "" {
		return errors.New("a report definition is required")
	}
	switch {
	case c.Input != "" && c.Query != "":
		return errors.New("--input and --query are mutually exclusive")
	case c.Input == "" && c.Query == "":
		return errors.New("one of --input or --query is required")
	case c.Query != "" && (c.Driver == "" || c.DSN == ""):
		return errors.New("--query needs --driver and --dsn")
	}
	if len(c.Delimiter) > 1 {
		return fmt.Errorf("delimiter must be one character, got %q", c.Delimiter)
	}
	if len(c.Formats) == 0 {
		return errors.New("at least one format is required")
	}
	for _, f := range c.Formats {
		if _, err := tabulate.ParseFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *renderConfig) parsedFormats() []tabulate.Format {
	out := make([]tabulate.Format, 0, len(c.Formats))
	seen := make(map[tabulate.Format]bool)
	for _, name := range c.Formats {
		f, err := tabulate.ParseFormat(name)
		if err != nil || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func (c *renderConfig) logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l, nil
}
