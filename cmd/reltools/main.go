// Package main implements the reltools CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/reltools/reltools/internal/cli"
	"github.com/reltools/reltools/internal/fileset"
	"github.com/reltools/reltools/internal/logging"
	"github.com/reltools/reltools/internal/pipeline"
)

func main() {
	code := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := cli.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(stdout, err.Error())
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	}

	logger := logging.New(logging.Options{
		Verbose: opts.Verbose,
		Writer:  stderr,
	})

	env := pipeline.Environment{
		Logger:     logger,
		FSResolver: fileset.NewOSResolver,
		Writer:     pipeline.NewOSWriter(),
	}

	pipe := pipeline.Pipeline{Env: env}
	summary, runErr := pipe.Run(ctx, pipeline.RunOptions{
		ConfigPath: opts.ConfigPath,
		OutOverride: opts.Out,
		// -stdout never touches the output directory.
		DryRun:       opts.DryRun || opts.Stdout,
		StrictConfig: opts.StrictConfig,
	})

	printDiagnostics(stderr, summary.Diagnostics)

	if runErr != nil {
		var diagErr *pipeline.DiagnosticsError
		if !errors.As(runErr, &diagErr) {
			_, _ = fmt.Fprintln(stderr, runErr.Error())
		}
		var writeErr *pipeline.WriteError
		if errors.As(runErr, &writeErr) {
			return 2
		}
		return 1
	}

	if opts.Stdout {
		for _, file := range summary.Files {
			_, _ = fmt.Fprintf(stdout, "# %s\n", file.Path)
			_, _ = stdout.Write(file.Content)
		}
		return 0
	}

	if opts.DryRun {
		for _, file := range summary.Files {
			_, _ = fmt.Fprintln(stdout, file.Path)
		}
		return 0
	}

	return 0
}

func printDiagnostics(w io.Writer, diags []pipeline.Diagnostic) {
	for _, diag := range diags {
		level := "warning"
		if diag.Severity == pipeline.SeverityError {
			level = "error"
		}
		if diag.Line <= 0 {
			_, _ = fmt.Fprintf(w, "%s: %s [%s]\n", diag.Path, diag.Message, level)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:%d:%d: %s [%s]\n", diag.Path, diag.Line, diag.Column, diag.Message, level)
	}
}
