// Package app is the composition root: it wires the loader stack, the
// resolver, validation, and formatting into one compile invocation.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mrwogu/promptscript/internal/ctxlog"
	"github.com/mrwogu/promptscript/internal/formatter"
	"github.com/mrwogu/promptscript/internal/loader"
	"github.com/mrwogu/promptscript/internal/resolver"
	"github.com/mrwogu/promptscript/internal/validator"
)

// App encapsulates one compile invocation's dependencies and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	targets *formatter.Registry
}

// New constructs an App with its own isolated logger and formatter
// registry.
func New(outW io.Writer, config *Config) *App {
	return &App{
		outW:    outW,
		logger:  newLogger(config.LogLevel, config.LogFormat, outW),
		config:  config,
		targets: formatter.Default(),
	}
}

// Run compiles the entry document and writes one file per target. The
// resolver, its caches, and the loader stack are constructed fresh here,
// scoped to this invocation.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	entry, err := filepath.Abs(a.config.EntryPath)
	if err != nil {
		return fmt.Errorf("resolve entry path: %w", err)
	}

	source := &loader.Router{
		Local: loader.NewLocal(filepath.Dir(entry)),
	}
	if a.config.RegistryURL != "" {
		registry := loader.NewRegistry(a.config.RegistryURL)
		defer registry.Close()
		source.Registry = registry
	}

	res := resolver.New(loader.NewCached(source))
	tree, err := res.Resolve(ctx, filepath.Base(entry), "")
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}
	a.logger.Debug("Resolution complete.", "blocks", tree.Len(), "edges", len(res.Edges()))

	if !a.config.NoValidate {
		diags := validator.Validate(tree, validator.DefaultRules())
		for _, d := range diags {
			if d.Severity == validator.SeverityError {
				a.logger.Error(d.Detail, "rule", d.Rule, "block", d.Block, "excerpt", d.Excerpt)
			} else {
				a.logger.Warn(d.Detail, "rule", d.Rule, "block", d.Block, "excerpt", d.Excerpt)
			}
		}
		if validator.HasErrors(diags) {
			return fmt.Errorf("validation failed with %d finding(s)", len(diags))
		}
	}

	for _, name := range a.config.Targets {
		f, err := a.targets.Get(name)
		if err != nil {
			return err
		}
		out, err := f.Render(tree)
		if err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		path := filepath.Join(a.config.OutputDir, f.Filename())
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create output directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		a.logger.Info("Wrote target output.", "target", name, "path", path, "bytes", len(out))
	}

	return nil
}
