package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/swarf/pkg/cam"
	"github.com/chazu/swarf/pkg/engine"
	"github.com/chazu/swarf/pkg/export"
	"github.com/chazu/swarf/pkg/job"
	"github.com/chazu/swarf/pkg/kernel"
	"github.com/chazu/swarf/pkg/kernel/sdfx"
	"github.com/chazu/swarf/pkg/model"
	"github.com/chazu/swarf/pkg/stl"
)

var errNoModel = errors.New("no model given; pass --model or set :model in the job")

// App ties the job engine, the planner and the exporters together. The
// CLI commands are thin wrappers around it.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
}

// JobResult is an evaluated job script.
type JobResult struct {
	Config   *job.Config
	Errors   []engine.EvalError
	Warnings []job.ValidationError
}

// OK reports whether the job can be planned.
func (r JobResult) OK() bool {
	return r.Config != nil && len(r.Errors) == 0
}

// NewApp creates an App with a fresh engine and the sdfx kernel.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
	}
}

// Evaluate turns job source into a config plus every problem found.
func (a *App) Evaluate(source string) JobResult {
	cfg, evalErrs, err := a.engine.Evaluate(source)
	return a.result(cfg, evalErrs, err)
}

// LoadJob evaluates a job file. An empty path yields the default job.
func (a *App) LoadJob(path string) JobResult {
	if path == "" {
		return a.result(job.Default(), nil, nil)
	}
	cfg, evalErrs, err := a.engine.EvaluateFile(path)
	return a.result(cfg, evalErrs, err)
}

func (a *App) result(cfg *job.Config, evalErrs []engine.EvalError, err error) JobResult {
	res := JobResult{Config: cfg, Errors: evalErrs}
	if err != nil {
		res.Config = nil
		res.Errors = append(res.Errors, engine.EvalError{Message: err.Error()})
		return res
	}
	if cfg == nil || len(evalErrs) > 0 {
		return res
	}
	v := cfg.Validate()
	for _, e := range v.Errors {
		res.Errors = append(res.Errors, engine.EvalError{Message: e.Error()})
	}
	res.Warnings = v.Warnings
	return res
}

// Plan ingests the job's model and plans every stage.
func (a *App) Plan(ctx context.Context, cfg *job.Config, progress cam.Progress) (*cam.Result, error) {
	if cfg.Model == "" {
		return nil, errNoModel
	}
	m := cam.Ingest(cfg.Model, cfg.Axes)
	res, err := cam.Run(ctx, m, cfg, cam.Options{Progress: progress})
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", filepath.Base(cfg.Model), err)
	}
	return res, nil
}

// Export writes a result to the job's output.
func (a *App) Export(res *cam.Result, cfg *job.Config) (*export.Document, error) {
	doc := export.FromResult(res)
	if err := export.Write(cfg.Output, cfg.Format, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Demo builds the demo relief and writes it to path as binary STL.
func (a *App) Demo(path string) (*kernel.Mesh, error) {
	m, err := model.Build(model.Demo(), a.kernel)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := stl.WriteBinary(&buf, m); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("demo: %w", err)
	}
	return m, nil
}
