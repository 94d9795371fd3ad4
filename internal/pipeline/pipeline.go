// Package pipeline orchestrates the schema translation process.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/reltools/reltools/internal/config"
	"github.com/reltools/reltools/internal/fileset"
	"github.com/reltools/reltools/internal/schema/ast"
	"github.com/reltools/reltools/internal/schema/parser"
	"github.com/reltools/reltools/internal/schema/validate"
	"github.com/reltools/reltools/internal/yamlout"
)

// Environment captures external dependencies used by the pipeline.
type Environment struct {
	FSResolver func(string) (fileset.Resolver, error)
	Logger     *slog.Logger
	Writer     Writer
}

// Writer writes translated documents to persistent storage.
type Writer interface {
	WriteFile(path string, data []byte) error
}

// Pipeline orchestrates configuration loading, parsing, validation, and
// document rendering.
type Pipeline struct {
	Env Environment
}

// OutputFile is one rendered document destined for the output directory.
type OutputFile struct {
	Path    string
	Content []byte
}

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning marks diagnostics that do not fail the run.
	SeverityWarning Severity = iota
	// SeverityError marks diagnostics that fail the run.
	SeverityError
)

// Diagnostic is a positioned message surfaced during a run. Line and Column
// are zero for diagnostics without a source position, such as validation
// violations.
type Diagnostic struct {
	Path     string
	Line     int
	Column   int
	Message  string
	Severity Severity
}

// Summary captures rendered files and diagnostics collected during a run.
type Summary struct {
	Files       []OutputFile
	Diagnostics []Diagnostic
}

// RunOptions configures a pipeline execution.
type RunOptions struct {
	ConfigPath   string
	OutOverride  string
	DryRun       bool
	StrictConfig bool
}

// DiagnosticsError indicates that errors were reported via diagnostics.
type DiagnosticsError struct {
	Diagnostic Diagnostic
	Cause      error
}

func (e *DiagnosticsError) Error() string {
	d := e.Diagnostic
	if d.Line <= 0 {
		return fmt.Sprintf("%s: %s", d.Path, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.Path, d.Line, d.Column, d.Message)
}

func (e *DiagnosticsError) Unwrap() error {
	return e.Cause
}

// WriteError wraps failures encountered while writing rendered documents.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewOSWriter returns a Writer that performs atomic writes on the local filesystem.
func NewOSWriter() Writer {
	return &osWriter{perm: 0o644}
}

type osWriter struct {
	perm fs.FileMode
}

func (w *osWriter) WriteFile(path string, data []byte) error {
	if path == "" {
		return errors.New("pipeline: empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".reltools-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
		_ = tmp.Close()
	}()
	if w.perm != 0 {
		if err := tmp.Chmod(w.perm); err != nil {
			return fmt.Errorf("chmod temp file: %w", err)
		}
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}

// Run executes the pipeline according to the provided options. Every schema
// file named by the configuration is parsed, validated, and rendered on its
// own; validation violations in one file do not stop the others from being
// processed, but any error diagnostic fails the run as a whole.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (summary Summary, err error) {
	diags := make([]Diagnostic, 0, 8)
	firstErrorIndex := -1

	addDiag := func(d Diagnostic) {
		if d.Path == "" {
			d.Path = opts.ConfigPath
		}
		diags = append(diags, d)
		if d.Severity == SeverityError && firstErrorIndex == -1 {
			firstErrorIndex = len(diags) - 1
		}
	}

	finalize := func() {
		summary.Diagnostics = append([]Diagnostic(nil), diags...)
	}
	defer finalize()

	logger := p.Env.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = "reltools.toml"
	}
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		addDiag(Diagnostic{Path: configPath, Severity: SeverityError, Message: fmt.Sprintf("resolve config path: %v", err)})
		return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: err}
	}

	baseDir := filepath.Dir(absConfigPath)
	resolverFn := p.Env.FSResolver
	if resolverFn == nil {
		resolverFn = fileset.NewOSResolver
	}

	resolver, err := resolverFn(baseDir)
	if err != nil {
		addDiag(Diagnostic{Path: absConfigPath, Severity: SeverityError, Message: fmt.Sprintf("resolve filesystem: %v", err)})
		return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: err}
	}

	loadResult, err := config.Load(absConfigPath, config.LoadOptions{Strict: opts.StrictConfig, Resolver: &resolver})
	if err != nil {
		addDiag(Diagnostic{Path: absConfigPath, Severity: SeverityError, Message: err.Error()})
		return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: err}
	}
	for _, warning := range loadResult.Warnings {
		addDiag(Diagnostic{Path: absConfigPath, Severity: SeverityWarning, Message: warning})
	}

	plan := loadResult.Plan
	outDir := plan.Out
	if opts.OutOverride != "" {
		override := opts.OutOverride
		if !filepath.IsAbs(override) {
			override = filepath.Join(baseDir, override)
		}
		outDir = filepath.Clean(override)
	}

	files := make([]OutputFile, 0, len(plan.Schemas))
	for _, schemaPath := range plan.Schemas {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		logger.Debug("translating schema", "path", schemaPath)

		contents, readErr := os.ReadFile(filepath.Clean(schemaPath))
		if readErr != nil {
			addDiag(Diagnostic{Path: schemaPath, Severity: SeverityError, Message: fmt.Sprintf("read schema: %v", readErr)})
			return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: readErr}
		}

		defs, parseErr := parser.Parse(schemaPath, contents)
		if parseErr != nil {
			var pe *parser.ParseError
			if errors.As(parseErr, &pe) {
				addDiag(Diagnostic{Path: pe.Path, Line: pe.Line, Column: pe.Column, Severity: SeverityError, Message: pe.Message})
			} else {
				addDiag(Diagnostic{Path: schemaPath, Severity: SeverityError, Message: parseErr.Error()})
			}
			return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: parseErr}
		}

		schema, buildErr := ast.Build(defs)
		if buildErr != nil {
			addDiag(Diagnostic{Path: schemaPath, Severity: SeverityError, Message: buildErr.Error()})
			return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: buildErr}
		}

		if validateErr := validate.Schema(schema); validateErr != nil {
			var sve *validate.SchemaValidationError
			if errors.As(validateErr, &sve) {
				for _, violation := range sve.Violations {
					addDiag(Diagnostic{Path: schemaPath, Severity: SeverityError, Message: violation})
				}
				// Keep going so violations in the remaining files surface too.
				continue
			}
			addDiag(Diagnostic{Path: schemaPath, Severity: SeverityError, Message: validateErr.Error()})
			return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: validateErr}
		}

		rendered, renderErr := yamlout.Render(schema)
		if renderErr != nil {
			addDiag(Diagnostic{Path: schemaPath, Severity: SeverityError, Message: renderErr.Error()})
			return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: renderErr}
		}

		files = append(files, OutputFile{
			Path:    filepath.Join(outDir, outputName(schemaPath)),
			Content: rendered,
		})
	}

	if firstErrorIndex != -1 {
		return summary, &DiagnosticsError{Diagnostic: diags[firstErrorIndex], Cause: nil}
	}

	summary.Files = files

	if opts.DryRun {
		return summary, nil
	}

	writer := p.Env.Writer
	if writer == nil {
		writer = NewOSWriter()
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		same, cmpErr := fileMatches(file.Path, file.Content)
		if cmpErr != nil {
			return summary, &WriteError{Path: file.Path, Err: cmpErr}
		}
		if same {
			logger.Debug("output unchanged", "path", file.Path)
			continue
		}
		if err := writer.WriteFile(file.Path, file.Content); err != nil {
			return summary, &WriteError{Path: file.Path, Err: err}
		}
		logger.Debug("wrote output", "path", file.Path)
	}

	return summary, nil
}

// outputName maps a schema source path to its document file name, replacing
// the source extension with .yaml.
func outputName(schemaPath string) string {
	base := filepath.Base(schemaPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".yaml"
}

func fileMatches(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(existing, content), nil
}
