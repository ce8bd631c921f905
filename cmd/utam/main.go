// Package main provides the UTAM page-object compiler CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/composable-delivery/busbar-sf-utam/pkg/version"
)

// Exit codes: 0 success, 1 internal error, 2 validation failure.
const (
	exitCodeInternal          = 1
	exitCodeValidationFailure = 2
)

// Output format names.
const (
	formatText = "text"
	formatJSON = "json"
)

var (
	cfgFile string //nolint:gochecknoglobals // CLI flag variable
	verbose bool   //nolint:gochecknoglobals // CLI flag variable
)

func main() {
	// Local development configuration, ignored when absent.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "utam",
		Short: "UTAM page-object compiler",
		Long:  `utam compiles declarative JSON page-object documents into statically-typed Rust code.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./utam.config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(compileCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(lintCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(lspCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeInternal)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "utam %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}

	return cmd
}
