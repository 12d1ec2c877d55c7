package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gamebus",
		Short:         "Run game scenes on a categorized event bus",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("gamebus {{.Version}}\nCommit: %s\nBuilt: %s\n", commit, date))

	root.AddCommand(newRunCmd(), newKindsCmd(), newValidateCmd())
	return root
}
