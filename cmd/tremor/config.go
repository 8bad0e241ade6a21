package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// newViper builds a Viper bound to TREMOR_* environment variables and, if
// configFile is non-empty, a config file — the same CLI flag > env > file
// > default precedence chain as
// _examples/solatis-trapperkeeper/internal/core/config/viper.go's
// LoadConfig, generalized from that package's single SensorAPIConfig
// struct to per-subcommand ad-hoc keys (server.go/run.go call v.GetString
// etc. directly rather than decoding into a struct, since each
// subcommand's flag set is small and shaped differently).
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("TREMOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// newLogger builds the *slog.Logger every subcommand threads into
// tremor.NewEvaluator / pipeline.New, per SPEC_FULL.md's ambient logging
// section.
func newLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
