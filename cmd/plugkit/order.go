package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/pkg/manifest"
)

var orderCmd = &cobra.Command{
	Use:   "order <package.toml>",
	Short: "Print the dependency-respecting install order for a package",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrder,
}

func init() {
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	pkg, err := manifest.ParsePackageFile(args[0])
	if err != nil {
		return err
	}

	order, err := pkg.InstallOrder()
	if err != nil {
		return err
	}

	for i, def := range order {
		fmt.Printf("%d. %s\n", i+1, def.ID)
	}
	return nil
}
