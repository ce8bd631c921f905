package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/composable-delivery/busbar-sf-utam/pkg/project"
)

// ErrConfigExists guards against clobbering an existing configuration.
var ErrConfigExists = errors.New("utam.config.json already exists (use --force to overwrite)")

// configFilePerm is the permission of the written config file.
const configFilePerm = 0o644

func initCmd() *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a utam.config.json",
		Long: `Create a project configuration, interactively or with defaults.

Examples:
  utam init          # interactive prompts
  utam init --yes    # accept all defaults`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(force, yes)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept defaults without prompting")

	return cmd
}

func runInit(force, yes bool) error {
	if _, err := os.Stat(project.DefaultConfigFile); err == nil && !force {
		return ErrConfigExists
	}

	cfg := project.Default()

	if !yes {
		err := promptConfig(&cfg)
		if err != nil {
			return fmt.Errorf("init prompts: %w", err)
		}
	}

	err := cfg.Validate()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg.ToFileShape(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	err = os.WriteFile(project.DefaultConfigFile, append(data, '\n'), configFilePerm)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	color.New(color.FgGreen).Fprintf(os.Stderr, "wrote %s\n", project.DefaultConfigFile)

	return nil
}

func promptConfig(cfg *project.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Input directory").
				Description("Where the *.utam.json page objects live").
				Value(&cfg.InputDirectory),
			huh.NewInput().
				Title("Output directory").
				Description("Where the generated Rust files go").
				Value(&cfg.OutputDirectory),
			huh.NewConfirm().
				Title("Strict mode").
				Description("Report unknown JSON fields as notes").
				Value(&cfg.CompilerOptions.Strict),
		),
	)

	return form.Run()
}
