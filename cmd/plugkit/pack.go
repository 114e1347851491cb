package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/internal/packaging"
	"github.com/goatkit/plugkit/pkg/manifest"
)

var packCmd = &cobra.Command{
	Use:   "pack <package-dir>",
	Short: "Build a distributable archive from a package directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runPack,
}

var unpackCmd = &cobra.Command{
	Use:   "unpack <archive>",
	Short: "Extract a package archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnpack,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "archive path (default <package-id>.zip)")
	unpackCmd.Flags().StringP("output", "o", ".", "target directory")
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(unpackCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		pkg, err := manifest.ParsePackageFile(filepath.Join(args[0], packaging.ManifestName))
		if err != nil {
			return err
		}
		output = pkg.Package.ID + ".zip"
	}

	archive, err := packaging.Build(args[0], output)
	if err != nil {
		return err
	}

	fmt.Printf("Built %s (%s)\n", archive.Path, archive.Checksum)
	fmt.Printf("  package %s %s, %d binaries\n",
		archive.Manifest.Package.ID, archive.Manifest.Package.Version, len(archive.Binaries))
	return nil
}

func runUnpack(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("output")

	archive, err := packaging.Extract(args[0], target)
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %s %s to %s\n",
		archive.Manifest.Package.ID, archive.Manifest.Package.Version, archive.Path)
	for id, bin := range archive.Binaries {
		fmt.Printf("  %s: %s\n", id, bin)
	}
	return nil
}
