package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "plugkit",
	Short: "Plugin manifest toolkit",
	Long: `plugkit works with plugin.toml and package.toml manifests.

Examples:
  plugkit gen ./my-plugin                generate plugin.toml from project.toml
  plugkit inspect plugin.toml            show manifest details
  plugkit order package.toml             print dependency install order
  plugkit pack ./pkg -o bundle.zip       build a distributable archive
  plugkit verify plugin.so --keys keys   verify a binary signature`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       "0.1.0",
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads tool settings from the working directory and environment.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}
