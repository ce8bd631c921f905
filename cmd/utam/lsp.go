package main

import (
	"github.com/spf13/cobra"

	"github.com/composable-delivery/busbar-sf-utam/internal/lsp"
)

func lspCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server for UTAM page-object files (LSP)",
		Long: `Start a language server (LSP) for *.utam.json files (stdio mode).

Publishes compiler diagnostics on open/change/save and offers completion
and hover for the grammar fields.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			lsp.NewServer().Run()

			return nil
		},
	}

	return cmd
}
