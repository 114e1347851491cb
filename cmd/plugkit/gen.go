package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/internal/gen"
)

var genCmd = &cobra.Command{
	Use:   "gen [project-dir]",
	Short: "Generate plugin.toml from a project descriptor",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGen,
}

func init() {
	genCmd.Flags().StringP("output", "o", "", "output file (default <project-dir>/plugin.toml)")
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	m, err := gen.FromDescriptor(filepath.Join(dir, gen.DescriptorName))
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = filepath.Join(dir, "plugin.toml")
	}

	if err := m.WriteFile(output); err != nil {
		return err
	}

	fmt.Printf("Generated %s for plugin %q\n", output, m.Plugin.ID)
	return nil
}
