// Package config loads narrator settings from narrator.yaml and NARRATOR_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencode-ai/narrator/internal/logging"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultLogLevel  = logging.LevelOff
	DefaultLogFormat = logging.FormatConsole
	DefaultMaxDepth  = 16
	DefaultAddr      = ":8080"
	DefaultTheme     = "default"
)

// Config holds every setting narrator reads.
type Config struct {
	Logging struct {
		Level  logging.Level
		Format logging.Format
	}
	Templates struct {
		// Dirs are extra template directories searched before the defaults.
		Dirs []string
		// Builtin enables the embedded template library.
		Builtin bool
	}
	Engine struct {
		MaxDepth int
	}
	Server struct {
		Addr string
	}
	Output struct {
		Theme string
		Color bool
	}

	// File is the config file that was read, if any.
	File string
}

// Load reads config from the environment (NARRATOR_ prefix) and an optional
// narrator.yaml in the working directory or ~/.config/narrator. A non-empty
// path names the file explicitly; it must then exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NARRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", string(DefaultLogLevel))
	v.SetDefault("logging.format", string(DefaultLogFormat))
	v.SetDefault("templates.dirs", []string{})
	v.SetDefault("templates.builtin", true)
	v.SetDefault("engine.max_depth", DefaultMaxDepth)
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("output.theme", DefaultTheme)
	v.SetDefault("output.color", true)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("narrator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "narrator"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{File: v.ConfigFileUsed()}

	level, err := logging.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return nil, fmt.Errorf("invalid NARRATOR_LOGGING_LEVEL: %w", err)
	}
	cfg.Logging.Level = level

	format := logging.Format(strings.ToLower(strings.TrimSpace(v.GetString("logging.format"))))
	switch format {
	case logging.FormatConsole, logging.FormatJSON:
		cfg.Logging.Format = format
	default:
		return nil, fmt.Errorf("invalid NARRATOR_LOGGING_FORMAT %q (expected console or json)", format)
	}

	cfg.Templates.Dirs = splitList(v.GetStringSlice("templates.dirs"))
	cfg.Templates.Builtin = v.GetBool("templates.builtin")

	cfg.Engine.MaxDepth = v.GetInt("engine.max_depth")
	if cfg.Engine.MaxDepth < 1 {
		return nil, fmt.Errorf("engine.max_depth must be at least 1, got %d", cfg.Engine.MaxDepth)
	}

	cfg.Server.Addr = strings.TrimSpace(v.GetString("server.addr"))
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}

	cfg.Output.Theme = strings.TrimSpace(v.GetString("output.theme"))
	cfg.Output.Color = v.GetBool("output.color")

	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.Logging.Level = DefaultLogLevel
	cfg.Logging.Format = DefaultLogFormat
	cfg.Templates.Dirs = []string{}
	cfg.Templates.Builtin = true
	cfg.Engine.MaxDepth = DefaultMaxDepth
	cfg.Server.Addr = DefaultAddr
	cfg.Output.Theme = DefaultTheme
	cfg.Output.Color = true
	return cfg
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(values []string) []string {
	out := []string{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
