package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/swarf/pkg/job"
	"github.com/chazu/swarf/pkg/stl"
	"github.com/chazu/swarf/pkg/tool"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpTool wraps a tool.Profile so it can be returned from `tool` and
// consumed by `job`.
type sexpTool struct {
	p tool.Profile
}

func (t *sexpTool) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(tool :id %d :diameter %g :shape :%s)", t.p.ID, t.p.Diameter, t.p.Shape)
}
func (t *sexpTool) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword acts as a flag.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// unknownKeys returns the keywords in pa that are not in allowed.
func (pa kwArgs) unknownKeys(allowed ...string) []string {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	var bad []string
	for k := range pa.kw {
		if !ok[k] {
			bad = append(bad, ":"+k)
		}
	}
	return bad
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer. Floats with no fractional part are accepted.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false and the keywords :true/:false.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			// A bare trailing flag.
			return true, nil
		}
	case *zygo.SexpStr:
		switch strings.TrimPrefix(v.S, kwPrefix) {
		case "true", "yes", "on":
			return true, nil
		case "false", "no", "off":
			return false, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_yz) and plain strings ("yz").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toTool extracts a tool.Profile from a sexpTool.
func toTool(s zygo.Sexp) (tool.Profile, error) {
	if t, ok := s.(*sexpTool); ok {
		return t.p, nil
	}
	return tool.Profile{}, fmt.Errorf("expected tool, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Evaluation state
// ---------------------------------------------------------------------------

// jobState collects what the builtins of one evaluation produce.
type jobState struct {
	cfg            *job.Config // last job form, nil if none
	stockX, stockY float64
	stockSet       bool
}

// config returns the job described by the script.
func (st *jobState) config() *job.Config {
	cfg := st.cfg
	if cfg == nil {
		cfg = job.Default()
	}
	if st.stockSet {
		cfg.StockX, cfg.StockY = st.stockX, st.stockY
	}
	return cfg
}

// floatField reads an optional numeric keyword into dst.
func floatField(pa kwArgs, fn, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

var jobKeys = []string{
	"model", "axes", "cutout-depth", "stock-to-leave", "z-offset",
	"finishing", "finishing-stepover", "retract", "roughing-radius-scale",
	"output", "format", "tools",
}

// registerBuiltins installs the job DSL builtins into a zygomys environment.
// They record their results in st.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *jobState) {

	// -----------------------------------------------------------------------
	// (tool :id 1 :name "6mm flat" :diameter 6 :stepover 3 :depth-of-cut 1.5
	//       :shape :flat :angle 90)
	// -----------------------------------------------------------------------
	env.AddFunction("tool", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if bad := pa.unknownKeys("id", "name", "diameter", "stepover", "depth-of-cut", "shape", "angle"); len(bad) > 0 {
			return zygo.SexpNull, fmt.Errorf("tool: unknown keywords %v", bad)
		}
		var p tool.Profile

		if v, ok := pa.kw["id"]; ok {
			id, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tool: id: %w", err)
			}
			p.ID = id
		}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tool: name: %w", err)
			}
			p.Name = s
		}
		for key, dst := range map[string]*float64{
			"diameter":     &p.Diameter,
			"stepover":     &p.Stepover,
			"depth-of-cut": &p.DepthOfCut,
			"angle":        &p.Angle,
		} {
			if err := floatField(pa, "tool", key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if v, ok := pa.kw["shape"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tool: shape: %w", err)
			}
			shape, err := tool.ParseShape(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tool: shape: %w", err)
			}
			p.Shape = shape
		}
		if p.Shape == tool.Vbit && p.Angle == 0 {
			p.Angle = tool.DefaultVbitAngle
		}

		return &sexpTool{p: p}, nil
	})

	// -----------------------------------------------------------------------
	// (library-tool 106) or (library-tool :id 106)
	//
	// Registered as "library_tool": the preprocessor rewrites kebab-case
	// identifiers because zygomys reads a hyphen as subtraction.
	// -----------------------------------------------------------------------
	env.AddFunction("library_tool", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var arg zygo.Sexp
		if v, ok := pa.kw["id"]; ok {
			arg = v
		} else if len(pa.positional) == 1 {
			arg = pa.positional[0]
		} else {
			return zygo.SexpNull, fmt.Errorf("library-tool requires a tool id")
		}
		id, err := toInt(arg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("library-tool: id: %w", err)
		}
		p, err := tool.Lookup(id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("library-tool: %w", err)
		}
		return &sexpTool{p: p}, nil
	})

	// -----------------------------------------------------------------------
	// (stock :x 100 :y 60)
	// -----------------------------------------------------------------------
	env.AddFunction("stock", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if bad := pa.unknownKeys("x", "y"); len(bad) > 0 {
			return zygo.SexpNull, fmt.Errorf("stock: unknown keywords %v", bad)
		}
		if err := floatField(pa, "stock", "x", &st.stockX); err != nil {
			return zygo.SexpNull, err
		}
		if err := floatField(pa, "stock", "y", &st.stockY); err != nil {
			return zygo.SexpNull, err
		}
		st.stockSet = true
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (job :model "part.stl" :axes :yz :cutout-depth 5 ... :tools (list a b))
	//
	// Each call starts from job.Default(); the last call wins.
	// -----------------------------------------------------------------------
	env.AddFunction("job", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if bad := pa.unknownKeys(jobKeys...); len(bad) > 0 {
			return zygo.SexpNull, fmt.Errorf("job: unknown keywords %v", bad)
		}
		cfg := job.Default()

		if v, ok := pa.kw["model"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: model: %w", err)
			}
			cfg.Model = s
		}
		if v, ok := pa.kw["output"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: output: %w", err)
			}
			cfg.Output = s
			cfg.Format = job.FormatFromPath(s)
		}
		if v, ok := pa.kw["format"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: format: %w", err)
			}
			f, err := job.ParseFormat(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: format: %w", err)
			}
			cfg.Format = f
		}
		if v, ok := pa.kw["axes"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: axes: %w", err)
			}
			tr, err := stl.ParseTransform(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: axes: %w", err)
			}
			cfg.Axes = tr
		}
		for key, dst := range map[string]*float64{
			"cutout-depth":          &cfg.CutoutDepth,
			"stock-to-leave":        &cfg.StockToLeave,
			"z-offset":              &cfg.ZOffset,
			"finishing-stepover":    &cfg.FinishingStepover,
			"retract":               &cfg.Retract,
			"roughing-radius-scale": &cfg.RoughingRadiusScale,
		} {
			if err := floatField(pa, "job", key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if v, ok := pa.kw["finishing"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: finishing: %w", err)
			}
			cfg.Finishing = b
		}
		if v, ok := pa.kw["tools"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: tools: %w", err)
			}
			cfg.Tools = cfg.Tools[:0]
			for i, item := range items {
				p, err := toTool(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("job: tools[%d]: %w", i, err)
				}
				cfg.Tools = append(cfg.Tools, p)
			}
		}

		st.cfg = cfg
		return zygo.SexpNull, nil
	})
}
