// Package cam sequences the toolpath planners over a job.
//
// A run takes an ingested model and a job configuration, scales the model
// into the cutting depth and plans one stage per tool, largest first. Stage
// 0 is the finishing tool: it gets the primary raster, an optional cross
// raster and the wall pass. Every other stage is a roughing raster that
// leaves stock. The perimeter cutout runs last with tool 0.
package cam

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/swarf/pkg/job"
	"github.com/chazu/swarf/pkg/tool"
	"github.com/chazu/swarf/pkg/toolpath"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Progress receives per-pass progress. Fractions run from 0 to 1 within
// one pass and are advisory only.
type Progress interface {
	Begin(pass string)
	Update(fraction float64)
	End()
}

type nopProgress struct{}

func (nopProgress) Begin(string)   {}
func (nopProgress) Update(float64) {}
func (nopProgress) End()           {}

// Options tune a run.
type Options struct {
	Progress Progress
}

// Result is the output of one run.
type Result struct {
	RunID       string
	Model       string
	Triangles   int
	Depth       float64
	Stock       v2.Vec
	Collections []*toolpath.PathCollection
	Advisories  []string
	Elapsed     time.Duration
}

// Segments returns the ramp count across all collections.
func (r *Result) Segments() int {
	return lo.SumBy(r.Collections, func(c *toolpath.PathCollection) int { return c.SegmentCount() })
}

// Run plans every stage of cfg over m. The model's field is normalized and
// scaled in place. A cancelled run returns ctx.Err() and no result.
func Run(ctx context.Context, m *Model, cfg *job.Config, opts Options) (*Result, error) {
	start := time.Now()
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}

	v := cfg.Validate()
	if !v.OK() {
		return nil, v.Err()
	}

	res := &Result{RunID: uuid.NewString(), Model: m.Name, Triangles: m.Triangles}
	res.Advisories = append(res.Advisories, m.Advisories...)
	for _, w := range v.Warnings {
		res.advise(w.Error())
	}

	f := m.Field
	f.Normalize()
	depth := cfg.ResolveDepth(f.ModelHeight())
	if depth.Advisory != "" {
		res.advise(depth.Advisory)
	}
	f.Scale(depth.Depth, cfg.ZOffset)
	res.Depth = depth.Depth

	res.Stock = v2.Vec{X: f.FootprintX(), Y: f.FootprintY()}
	if cfg.StockX > 0 {
		res.Stock.X = cfg.StockX
	}
	if cfg.StockY > 0 {
		res.Stock.Y = cfg.StockY
	}
	if f.Len() == 0 {
		res.advise("model has no triangles; every pass cuts to full depth")
	}

	log := Logger().With("run", res.RunID)
	log.Info("run started", "tools", len(cfg.Tools), "depth", res.Depth, "stock_x", res.Stock.X, "stock_y", res.Stock.Y)

	p := &planner{ctx: ctx, m: m, cfg: cfg, depth: depth, res: res, progress: opts.Progress}
	dir := toolpath.Rows
	for i := len(cfg.Tools) - 1; i >= 0; i-- {
		t := cfg.Tools[i]
		log.Info("stage started", "tool", t.String(), "roughing", i != 0, "direction", dir.String())
		var err error
		if i == 0 {
			err = p.finish(t, dir)
		} else {
			err = p.rough(t, dir)
		}
		if err != nil {
			return nil, err
		}
		dir = cross(dir)
	}

	if !depth.SkipCutout {
		col := toolpath.CutoutRamp(res.Stock, cfg.Tools[0], depth.Depth, cfg.Retract)
		if col.Empty() {
			res.advise("stock perimeter is degenerate; no cutout")
		} else {
			p.add(col)
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("run finished", "collections", len(res.Collections), "segments", res.Segments(), "elapsed", res.Elapsed)
	return res, nil
}

// advise records an advisory and logs it once.
func (r *Result) advise(msg string) {
	Logger().Warn(msg, "run", r.RunID)
	r.Advisories = append(r.Advisories, msg)
}

func cross(d toolpath.Direction) toolpath.Direction {
	if d == toolpath.Rows {
		return toolpath.Columns
	}
	return toolpath.Rows
}

// planner carries the per-run state shared by the stages.
type planner struct {
	ctx      context.Context
	m        *Model
	cfg      *job.Config
	depth    job.DepthResolution
	res      *Result
	progress Progress
}

func (p *planner) pass(t tool.Profile, dir toolpath.Direction, roughing bool) toolpath.RasterPass {
	rp := toolpath.RasterPass{
		Roughing:            roughing,
		CutoutDepth:         p.depth.Depth,
		WithCutout:          !p.depth.SkipCutout,
		Direction:           dir,
		StepDepth:           t.DepthOfCut,
		Retract:             p.cfg.Retract,
		RoughingRadiusScale: p.cfg.RoughingRadiusScale,
		Progress:            p.progress.Update,
	}
	if roughing {
		rp.StockToLeave = p.cfg.StockToLeave
	} else {
		rp.Stepover = p.cfg.FinishingStepover
	}
	return rp
}

func (p *planner) raster(t tool.Profile, rp toolpath.RasterPass) error {
	label := "finish"
	if rp.Roughing {
		label = "rough"
	}
	p.progress.Begin(fmt.Sprintf("%s %s T%d", label, rp.Direction, t.ID))
	col, err := toolpath.PlanRasterContext(p.ctx, p.m.Field, p.res.Stock, t, rp)
	p.progress.End()
	if err != nil {
		return err
	}
	p.add(col)
	return nil
}

func (p *planner) rough(t tool.Profile, dir toolpath.Direction) error {
	return p.raster(t, p.pass(t, dir, true))
}

func (p *planner) finish(t tool.Profile, dir toolpath.Direction) error {
	if err := p.raster(t, p.pass(t, dir, false)); err != nil {
		return err
	}
	if p.cfg.Finishing {
		if err := p.raster(t, p.pass(t, cross(dir), false)); err != nil {
			return err
		}
	}

	p.progress.Begin(fmt.Sprintf("walls T%d", t.ID))
	col, err := toolpath.ReconstructWallsContext(p.ctx, p.m.Field, p.res.Stock, t, toolpath.WallPass{
		CutoutDepth: p.depth.Depth,
		StepDepth:   t.DepthOfCut,
		Retract:     p.cfg.Retract,
		Progress:    p.progress.Update,
	})
	p.progress.End()
	if err != nil {
		return err
	}
	if !col.Empty() {
		p.add(col)
	}
	return nil
}

func (p *planner) add(col *toolpath.PathCollection) {
	Logger().Debug("pass planned", "run", p.res.RunID, "collection", col.Name, "layers", len(col.Layers), "segments", col.SegmentCount())
	p.res.Collections = append(p.res.Collections, col)
}
