package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/composable-delivery/busbar-sf-utam/pkg/compiler"
	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/project"
)

// ErrUnsupportedFormat marks an unknown --format value.
var ErrUnsupportedFormat = errors.New("unsupported format")

func validateCmd() *cobra.Command {
	var format string

	var colorize, nocolor, strict bool

	cmd := &cobra.Command{
		Use:   "validate <file.utam.json|-> [files...]",
		Short: "Validate UTAM JSON files without generating code",
		Long: `Validate UTAM page-object JSON files against the bundled schema and
the semantic rules, reporting diagnostics with byte spans.

Examples:
  utam validate login.utam.json
  utam validate - < login.utam.json
  utam validate --format json pages/*.utam.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args, format, strict, colorize, nocolor)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format (text, json)")
	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&strict, "strict", false, "report unknown fields as notes")

	return cmd
}

func runValidate(files []string, format string, strict, colorize, nocolor bool) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	cfg, err := project.Load(cfgFile)
	if err != nil {
		return err
	}

	opts := compiler.Options{Strict: strict || cfg.CompilerOptions.Strict}

	combined := diag.NewBundle()
	checked := 0

	for _, file := range files {
		text, origin, readErr := loadInput(file)
		if readErr != nil {
			return readErr
		}

		combined.Merge(compiler.Validate(text, origin, opts))
		checked++
	}

	if format == formatJSON {
		err = diag.WriteJSON(os.Stdout, combined)
		if err != nil {
			return err
		}
	} else {
		diag.NewRenderer(os.Stderr).Render(combined)
	}

	if combined.HasErrors() {
		if format == formatText {
			color.New(color.FgRed).Fprintf(os.Stderr, "%d error(s) in %d file(s)\n", combined.ErrorCount(), checked)
		}

		os.Exit(exitCodeValidationFailure)
	}

	if format == formatText {
		color.New(color.FgGreen).Fprintf(os.Stderr, "%d file(s) valid\n", checked)
	}

	return nil
}

// loadInput reads a file argument, with "-" meaning stdin.
func loadInput(path string) (text, origin string, err error) {
	if path == "-" {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return "", "", fmt.Errorf("read stdin: %w", readErr)
		}

		return string(data), "<stdin>", nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", "", fmt.Errorf("read %s: %w", path, readErr)
	}

	return string(data), path, nil
}
