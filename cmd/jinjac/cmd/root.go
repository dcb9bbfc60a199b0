package cmd

import (
	"github.com/jinjac/jinjac"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "jinjac",
	Short: "Compile Jinja-like templates to a Target AST",
	Long: `jinjac is the front half of a template compiler: it lexes and
parses a Jinja-like template language, lowers the resulting Template AST
into a generic ES-style Target AST, and hands that tree off to an external
printer or runtime.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "jinjac.yml", "path to an optional YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() (jinjac.Config, error) {
	cfg, err := jinjac.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	level := cfg.LogLevel
	if debug {
		level = "DEBUG"
	}
	if level != "" {
		if err := jinjac.SetLogLevel(level); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
