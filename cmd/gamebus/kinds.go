package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/gamebus/internal/config"
	"github.com/dshills/gamebus/internal/event/catalog"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "kinds [pattern]",
		Short:   "List the built-in event kinds",
		Example: "  gamebus kinds\n  gamebus kinds 'options.*'\n  gamebus kinds '*.tick'",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := catalog.Wildcard
			if len(args) == 1 {
				pattern = args[0]
			}
			kinds, err := catalog.Select(pattern)
			if err != nil {
				return err
			}
			if len(kinds) == 0 {
				return fmt.Errorf("no kinds match %q", pattern)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tKIND")
			for _, k := range kinds {
				fmt.Fprintf(w, "%s\t%s\n", k.Category, k.Name)
			}
			return w.Flush()
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <scene file>",
		Short:   "Load and validate a scene file without running it",
		Example: "  gamebus validate scenes/arena.toml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			components := 0
			for _, e := range cfg.Entities {
				components += len(e.Components)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d entities, %d components)\n", args[0], len(cfg.Entities), components)
			return nil
		},
	}
}
