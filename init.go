package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newInitCommand implements `podherit init`, which writes a starter
// configuration file documenting every knob.
func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration file",
		Long: `Write a commented starter .podherit.yaml. Refuses to replace an
existing file unless --force is given.

path defaults to ./` + defaultConfigPath + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			return writeStarterConfig(path, force, cmd)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file")
	return cmd
}

func writeStarterConfig(path string, force bool, cmd *cobra.Command) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to replace)", path)
		}
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

const starterConfig = `# podherit configuration.

# Skip members whose names are private by convention (leading underscore).
skip_underscored: true

# Template for each documented member: %m member label, %c ancestor class,
# %% literal percent. "L<%m|%c/%m>" renders POD links.
method_format: "%m"

# Linearization policy: dfs (depth-first, the default) or c3.
mro: dfs

# Document members of a class against a different class name.
# class_map:
#   ImplDetail: PublicFacade

# Sources to skip entirely, by relative path or class identifier.
# skip_classes:
#   - experimental/scratch.py
#   - LegacyShim

# Ancestors to drop from every working sequence.
# skip_inherits:
#   - TestOnlyMixin

# Extra ancestors per source class; keys are relative paths (take
# precedence) or class identifiers.
# force_inherits:
#   lib/widget.py: [RenderSupport]
#   Widget: [RenderSupport]

# Write output under this directory instead of alongside sources.
# out_dir: docs/inherited
`
