package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/pkg/manifest"
)

var expandCmd = &cobra.Command{
	Use:   "expand <package.toml>",
	Short: "Expand a package manifest into per-plugin manifests",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpand,
}

func init() {
	expandCmd.Flags().StringP("output", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	pkg, err := manifest.ParsePackageFile(args[0])
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("output")
	if outDir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		outDir = cfg.OutputDir
	}

	for _, m := range pkg.Expand() {
		path := filepath.Join(outDir, m.Plugin.ID+".toml")
		if err := m.WriteFile(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
