package main

import (
	"github.com/spf13/cobra"
)

// Persistent flags shared by every subcommand, grounded on
// _examples/solatis-trapperkeeper/cmd/trapperkeeper/cmd/root.go's package-
// level flag variables bound once in init and read from any subcommand's
// RunE.
var (
	configFile     string
	logLevel       string
	logFormat      string
	recursionLimit int
	wasmDir        string
	jsDir          string
)

var rootCmd = &cobra.Command{
	Use:               "tremor",
	Short:             "tremor event-processing runtime",
	Long:              `tremor runs tremor-script filters and trickle queries against streams of events.`,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().IntVar(&recursionLimit, "recursion-limit", 1024, "user function recursion depth limit")
	rootCmd.PersistentFlags().StringVar(&wasmDir, "wasm-dir", "", "directory of .wasm modules backing `intrinsic ... as wasm::\"name\"` declarations (empty disables the wasm:: backend)")
	rootCmd.PersistentFlags().StringVar(&jsDir, "js-dir", "", "directory of .js files backing `intrinsic ... as js::\"name\"` declarations (empty disables the js:: backend)")
}

// loadConfig applies the CLI flag > environment (TREMOR_*) > config file >
// default precedence chain to the persistent flag variables: a flag value
// only gets overridden by viper when the user did not pass it explicitly on
// the command line, so an explicit -–log-level on the invocation always
// wins over TREMOR_LOG_LEVEL or a config file entry.
func loadConfig(cmd *cobra.Command, args []string) error {
	v, err := newViper(configFile)
	if err != nil {
		return err
	}
	for _, name := range []string{"log-level", "log-format", "recursion-limit", "wasm-dir", "js-dir"} {
		if cmd.PersistentFlags().Changed(name) || !v.IsSet(name) {
			continue
		}
		switch name {
		case "log-level":
			logLevel = v.GetString(name)
		case "log-format":
			logFormat = v.GetString(name)
		case "recursion-limit":
			recursionLimit = v.GetInt(name)
		case "wasm-dir":
			wasmDir = v.GetString(name)
		case "js-dir":
			jsDir = v.GetString(name)
		}
	}
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}
