package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/composable-delivery/busbar-sf-utam/internal/cache"
	"github.com/composable-delivery/busbar-sf-utam/internal/observability"
	"github.com/composable-delivery/busbar-sf-utam/pkg/compiler"
	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/project"
	"github.com/composable-delivery/busbar-sf-utam/pkg/version"
)

// cacheDirName is the on-disk location of the incremental compile cache,
// relative to the output directory.
const cacheDirName = ".utam-cache"

// outputFilePerm and outputDirPerm are the generated artifact permissions.
const (
	outputFilePerm = 0o644
	outputDirPerm  = 0o755
)

func compileCmd() *cobra.Command {
	var check, stats, noCache bool

	cmd := &cobra.Command{
		Use:   "compile [files...]",
		Short: "Compile UTAM JSON files to Rust",
		Long: `Compile UTAM page-object JSON files into Rust source code.

Without arguments, inputs are discovered under the configured input
directory. Unchanged inputs are skipped via a content-addressed cache.

Examples:
  utam compile                          # Compile everything in the project
  utam compile pages/login.utam.json    # Compile specific files
  utam compile --check                  # Verify outputs are up to date
  utam compile --stats                  # Print a per-file summary table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), args, check, stats, noCache)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "do not write outputs; fail if they would change")
	cmd.Flags().BoolVar(&stats, "stats", false, "print a per-file summary table")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the incremental compile cache")

	return cmd
}

// fileOutcome is one row of the compile summary.
type fileOutcome struct {
	path     string
	status   string
	size     int
	duration time.Duration
}

//nolint:gocognit // the per-file loop carries the cache/check/write branches.
func runCompile(ctx context.Context, args []string, check, stats, noCache bool) error {
	cfg, err := project.Load(cfgFile)
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

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no page-object files found")

		return nil
	}

	providers, err := observability.Init(observability.Config{ServiceVersion: version.Version, Debug: verbose})
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	var artifactCache *cache.Cache

	if !noCache {
		artifactCache, err = cache.Open(filepath.Join(cfg.OutputDirectory, cacheDirName))
		if err != nil {
			providers.Logger.Warn("compile cache unavailable", "error", err)
		}
	}

	opts := compiler.Options{
		Strict:         cfg.CompilerOptions.Strict,
		EagerChildLoad: cfg.CompilerOptions.EagerChildLoad,
	}
	fingerprint := fmt.Sprintf("v=%s strict=%t eager=%t", version.Version, opts.Strict, opts.EagerChildLoad)

	renderer := diag.NewRenderer(os.Stderr)
	outcomes := make([]fileOutcome, 0, len(files))
	failed := false
	drifted := false

	for _, file := range files {
		start := time.Now()

		fileCtx, span := providers.Tracer.Start(ctx, "compile",
			trace.WithAttributes(attribute.String("utam.file", file)))

		outcome, compileErr := compileOne(fileCtx, cfg, file, opts, fingerprint, artifactCache, check, renderer)

		span.End()

		if compileErr != nil {
			return compileErr
		}

		outcome.duration = time.Since(start)
		outcomes = append(outcomes, outcome)

		switch outcome.status {
		case "errors":
			failed = true
		case "drift":
			drifted = true
		}
	}

	if stats {
		printStats(outcomes)
	}

	switch {
	case failed:
		os.Exit(exitCodeValidationFailure)
	case drifted:
		os.Exit(exitCodeInternal)
	}

	color.New(color.FgGreen).Fprintf(os.Stderr, "compiled %d file(s)\n", len(outcomes))

	return nil
}

func compileOne(
	_ context.Context,
	cfg project.Config,
	file string,
	opts compiler.Options,
	fingerprint string,
	artifactCache *cache.Cache,
	check bool,
	renderer *diag.Renderer,
) (fileOutcome, error) {
	input, err := os.ReadFile(file)
	if err != nil {
		return fileOutcome{}, fmt.Errorf("read %s: %w", file, err)
	}

	outPath, err := project.OutputPath(cfg, file)
	if err != nil {
		return fileOutcome{}, err
	}

	key := cache.Key(input, fingerprint)
	status := "ok"

	var code string

	if artifactCache != nil {
		if cached, hit := artifactCache.Get(key); hit {
			code = string(cached)
			status = "cached"
		}
	}

	if code == "" {
		generated, bundle := compiler.CompileWithOptions(string(input), file, opts)

		renderer.Render(bundle)

		if bundle.HasErrors() {
			return fileOutcome{path: file, status: "errors"}, nil
		}

		code = generated

		if artifactCache != nil {
			putErr := artifactCache.Put(key, []byte(code))
			if putErr != nil {
				fmt.Fprintf(os.Stderr, "warning: cache write failed: %v\n", putErr)
			}
		}
	}

	if check {
		if drift := checkDrift(outPath, code); drift {
			return fileOutcome{path: file, status: "drift", size: len(code)}, nil
		}

		return fileOutcome{path: file, status: status, size: len(code)}, nil
	}

	err = os.MkdirAll(filepath.Dir(outPath), outputDirPerm)
	if err != nil {
		return fileOutcome{}, fmt.Errorf("create output dir: %w", err)
	}

	err = os.WriteFile(outPath, []byte(code), outputFilePerm)
	if err != nil {
		return fileOutcome{}, fmt.Errorf("write %s: %w", outPath, err)
	}

	return fileOutcome{path: file, status: status, size: len(code)}, nil
}

// checkDrift compares the on-disk output with the fresh compile and prints
// a readable diff when they differ.
func checkDrift(outPath, fresh string) bool {
	existing, err := os.ReadFile(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: missing generated output\n", outPath)

		return true
	}

	if string(existing) == fresh {
		return false
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(existing), fresh, false)
	dmp.DiffCleanupSemantic(diffs)

	fmt.Fprintf(os.Stderr, "%s: generated output is out of date\n", outPath)
	fmt.Fprint(os.Stderr, dmp.DiffPrettyText(diffs))

	return true
}

func printStats(outcomes []fileOutcome) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Status", "Size", "Duration"})

	var total uint64

	for _, o := range outcomes {
		tbl.AppendRow(table.Row{
			o.path,
			o.status,
			humanize.IBytes(uint64(o.size)),
			o.duration.Round(time.Millisecond).String(),
		})

		total += uint64(o.size)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%d file(s)", len(outcomes)), "", humanize.IBytes(total), ""})
	tbl.Render()
}
