package main

import (
	"github.com/spf13/cobra"

	"github.com/composable-delivery/busbar-sf-utam/internal/mcp"
	"github.com/composable-delivery/busbar-sf-utam/internal/observability"
	"github.com/composable-delivery/busbar-sf-utam/pkg/version"
)

func mcpCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server exposing the compiler as tools",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes the compiler to AI agents:
  - utam_compile: compile a page-object document to Rust
  - utam_validate: validate a document and return diagnostics`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			providers, err := observability.Init(observability.Config{
				ServiceVersion: version.Version,
				Debug:          debug,
				LogJSON:        true,
			})
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(cobraCmd.Context())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			srv := mcp.NewServer(mcp.ServerDeps{Logger: providers.Logger})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
