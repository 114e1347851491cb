package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/pkg/manifest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <manifest>",
	Short: "Show the contents of a plugin or package manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	m, err := manifest.ParseFile(args[0])
	if err != nil {
		return err
	}

	if m.IsPackage() {
		printPackage(m.Pkg)
	} else {
		printPlugin(m.Single)
	}
	return nil
}

func printPlugin(p *manifest.PluginManifest) {
	fmt.Printf("Plugin:      %s (%s)\n", p.Plugin.ID, p.Plugin.Name)
	fmt.Printf("Version:     %s\n", p.Plugin.Version)
	fmt.Printf("Type:        %s\n", p.Plugin.Type)
	fmt.Printf("Author:      %s\n", p.Plugin.Author)
	fmt.Printf("API version: %d\n", p.Compatibility.APIVersion)
	fmt.Printf("Binary:      %s\n", p.BinaryFilename())
	if len(p.Compatibility.Platforms) > 0 {
		fmt.Printf("Platforms:   %s\n", strings.Join(p.Compatibility.Platforms, ", "))
	}
	if len(p.Compatibility.DependsOn) > 0 {
		fmt.Printf("Depends on:  %s\n", strings.Join(p.Compatibility.DependsOn, ", "))
	}
	for _, svc := range p.Provides {
		fmt.Printf("Provides:    %s %s\n", svc.ID, svc.Version)
	}
	for _, req := range p.Requires {
		optional := ""
		if req.Optional {
			optional = " (optional)"
		}
		fmt.Printf("Requires:    %s%s\n", req.ID, optional)
	}
	if p.Signature != nil {
		fmt.Printf("Signed:      yes (%s)\n", p.Signature.SignatureFile)
	}
	if !p.SupportsCurrentPlatform() {
		fmt.Printf("Note:        does not support this platform (%s)\n", manifest.CurrentPlatform())
	}
}

func printPackage(p *manifest.PackageManifest) {
	fmt.Printf("Package:     %s (%s)\n", p.Package.ID, p.Package.Name)
	fmt.Printf("Version:     %s\n", p.Package.Version)
	fmt.Printf("Author:      %s\n", p.Package.Author)
	fmt.Printf("API version: %d\n", p.Compatibility.APIVersion)
	fmt.Printf("Plugins:     %d\n", len(p.Plugins))
	for _, def := range p.Plugins {
		deps := ""
		if len(def.DependsOn) > 0 {
			deps = " -> " + strings.Join(def.DependsOn, ", ")
		}
		fmt.Printf("  %s (%s)%s\n", def.ID, def.Type, deps)
	}
}
