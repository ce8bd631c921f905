package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/lint"
	"github.com/composable-delivery/busbar-sf-utam/pkg/parser"
	"github.com/composable-delivery/busbar-sf-utam/pkg/project"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// defaultRulesetFile is picked up from the working directory when present.
const defaultRulesetFile = ".utamlint.yaml"

func lintCmd() *cobra.Command {
	var sarifPath, rulesetPath string

	cmd := &cobra.Command{
		Use:   "lint [files...]",
		Short: "Lint UTAM JSON files for style issues",
		Long: `Run style rules over UTAM page-object files: missing descriptions,
fragile selectors, deep shadow nesting.

Rule levels come from .utamlint.yaml and the project config's lint.rules.

Examples:
  utam lint
  utam lint pages/login.utam.json
  utam lint --sarif report.sarif`,
		RunE: func(_ *cobra.Command, args []string) error {
			return runLint(args, rulesetPath, sarifPath)
		},
	}

	cmd.Flags().StringVar(&sarifPath, "sarif", "", "write a SARIF 2.1.0 report to this path")
	cmd.Flags().StringVar(&rulesetPath, "ruleset", "", "ruleset file (default: .utamlint.yaml when present)")

	return cmd
}

func runLint(args []string, rulesetPath, sarifPath string) error {
	cfg, err := project.Load(cfgFile)
	if err != nil {
		return err
	}

	ruleset, err := resolveRuleset(rulesetPath, cfg)
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files, err = project.Discover(cfg)
		if err != nil {
			return err
		}
	}

	combined := diag.NewBundle()

	for _, file := range files {
		data, readErr := os.ReadFile(file)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", file, readErr)
		}

		src := source.New(file, string(data))

		res := parser.Parse(src)
		combined.Merge(res.Bundle)

		if res.Doc == nil {
			continue
		}

		combined.Merge(lint.Run(src, res.Doc, ruleset))
	}

	if sarifPath != "" {
		err = writeSarifFile(sarifPath, combined)
		if err != nil {
			return err
		}
	} else {
		diag.NewRenderer(os.Stderr).Render(combined)
	}

	if combined.HasErrors() {
		os.Exit(exitCodeValidationFailure)
	}

	color.New(color.FgGreen).Fprintf(os.Stderr, "linted %d file(s), %d finding(s)\n", len(files), combined.Len())

	return nil
}

func resolveRuleset(rulesetPath string, cfg project.Config) (lint.Ruleset, error) {
	path := rulesetPath

	if path == "" {
		if _, statErr := os.Stat(defaultRulesetFile); statErr == nil {
			path = defaultRulesetFile
		}
	}

	ruleset := lint.DefaultRuleset()

	if path != "" {
		loaded, err := lint.LoadRuleset(path)
		if err != nil {
			return nil, err
		}

		ruleset = loaded
	}

	ruleset.Merge(cfg.Lint.Rules)

	return ruleset, nil
}

func writeSarifFile(path string, bundle *diag.Bundle) error {
	f, err := os.Create(path) //nolint:gosec // user-chosen report path
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}

	defer func() { _ = f.Close() }()

	return lint.WriteSARIF(f, bundle)
}
