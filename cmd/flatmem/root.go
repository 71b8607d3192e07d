package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/rawbytedev/flatmem/pkg/alloc"
	"github.com/spf13/cobra"
)

var (
	// Version is set via -ldflags.
	Version = "dev"
	// Commit is set via -ldflags.
	Commit = "unknown"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfgFile string
	cfg     Config
	alloc   alloc.Allocator
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "flatmem",
		Short: "Profile and inspect flatmem buffers",
		Long: `flatmem drives the flatmem containers outside of a test binary.

  flatmem profile            allocate, drain and encode arrays, then write a heap profile
  flatmem inspect TEXT       trace copy-on-write slicing of TEXT
  flatmem config             print the effective configuration

Settings come from flags, FLATMEM_* environment variables and an optional
YAML file given with --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file")
	root.PersistentFlags().String("allocator", "", `allocator chain, e.g. "heap", "mmap", "metered+pool+mmap"`)
	root.PersistentFlags().Int("pool-depth", 0, "regions kept per size by the pool allocator")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error")

	root.AddCommand(newProfileCmd(a), newInspectCmd(a), newConfigCmd(a))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg, "flatmem")
	a.alloc, err = cfg.NewAllocator()
	if err != nil {
		return err
	}
	alloc.SetLogger(a.logger.WithPrefix("alloc"))
	alloc.SetDefault(a.alloc)
	a.logger.Debug("configured", "allocator", alloc.Name(a.alloc), "config", a.cfgFile)
	return nil
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
