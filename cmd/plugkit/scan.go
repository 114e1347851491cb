package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/internal/loader"
	"github.com/goatkit/plugkit/internal/registry"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Load all manifests in a directory and report what registered",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().Bool("watch", false, "keep running and reload manifests on file changes")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.PluginsDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	reg := registry.New()
	ldr := loader.New(dir, reg, logger)

	if _, err := ldr.DiscoverAll(); err != nil {
		return err
	}

	loaded, errs := ldr.LoadAll()
	for _, err := range errs {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	fmt.Printf("Loaded %d manifests, %d plugins registered\n", loaded, len(reg.IDs()))
	for _, id := range reg.IDs() {
		m, _ := reg.Get(id)
		fmt.Printf("  %s %s (%s)\n", id, m.Plugin.Version, m.Plugin.Type)
	}

	for _, unmet := range reg.CheckRequirements() {
		fmt.Fprintln(os.Stderr, "Unmet requirement:", unmet)
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := ldr.WatchDir(ctx); err != nil {
		return err
	}
	defer ldr.StopWatch()

	fmt.Printf("Watching %s; press Ctrl+C to stop\n", dir)
	<-ctx.Done()
	return nil
}
