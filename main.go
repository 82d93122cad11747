// podherit generates inherited-method documentation for class hierarchies
// in Python and Ruby source trees.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/theorbtwo/podherit/internal/config"
	"github.com/theorbtwo/podherit/internal/discover"
	"github.com/theorbtwo/podherit/internal/generate"
	"github.com/theorbtwo/podherit/internal/lang"
	"github.com/theorbtwo/podherit/internal/mro"
	"github.com/theorbtwo/podherit/internal/registry"
)

var version = "dev"

const defaultConfigPath = ".podherit.yaml"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	outDir     string
	langs      []string
	format     string
	mroPolicy  string
	dryRun     bool
	verbose    bool
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "podherit [path]",
		Short: "Generate inherited-method documentation for class hierarchies",
		Long: `podherit scans a Python or Ruby source tree, resolves each class's
linearized ancestry, determines which ancestor truly defines every inherited
callable member, and writes an INHERITED METHODS section merged into the
class's documentation as a sidecar .pod file.

Existing output files are only replaced when their first line carries the
generated-file marker; hand-written files are never clobbered.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			explicitConfig := cmd.Flags().Changed("config")
			return run(root, flags, explicitConfig)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", defaultConfigPath, "configuration file")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "", "output directory (default: alongside sources)")
	cmd.Flags().StringSliceVarP(&flags.langs, "langs", "l", nil, "languages to include (python, ruby)")
	cmd.Flags().StringVar(&flags.format, "format", "", "per-member format template (%m member, %c class)")
	cmd.Flags().StringVar(&flags.mroPolicy, "mro", "", "linearization policy: dfs or c3")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "report what would be written without writing")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug diagnostics")

	cmd.AddCommand(newInitCommand())
	return cmd
}

func run(root string, flags rootFlags, explicitConfig bool) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	configPath := flags.configPath
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(root, configPath)
	}
	cfg, err := config.Load(configPath, !explicitConfig)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, name := range cfg.Langs {
		if _, ok := lang.Languages[name]; !ok {
			return fmt.Errorf("unsupported language %q", name)
		}
	}

	files, err := discover.Sources(root, cfg.Langs)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found")
	}

	reg := registry.New(root, files, mro.Policy(cfg.MRO), logger)
	gen := &generate.Generator{
		Registry: reg,
		Config:   cfg,
		Configs:  config.NewResolver(cfg, reg.DeclaredConfig),
		Log:      logger,
		Root:     root,
		OutDir:   flags.outDir,
		DryRun:   flags.dryRun,
	}
	if gen.OutDir == "" {
		gen.OutDir = cfg.OutDir
	}

	results, failed := gen.Run(files)

	written := 0
	for _, res := range results {
		if res.Written {
			written++
			logger.Info("wrote", "path", res.Output)
		} else if res.Skipped != "" && res.Skipped != "no contributing ancestors" {
			logger.Info("skipped", "path", res.Output, "reason", res.Skipped)
		}
	}
	logger.Info("done", "files", len(files), "written", written, "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d source unit(s) failed", failed)
	}
	return nil
}

func applyFlagOverrides(cfg *config.Config, flags rootFlags) {
	if len(flags.langs) > 0 {
		cfg.Langs = flags.langs
	}
	if flags.format != "" {
		cfg.MethodFormat = flags.format
	}
	if flags.mroPolicy != "" {
		cfg.MRO = flags.mroPolicy
	}
}
