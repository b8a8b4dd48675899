package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/chazu/swarf/pkg/cam"
	"github.com/chazu/swarf/pkg/job"
	"github.com/chazu/swarf/pkg/stl"
	"github.com/chazu/swarf/pkg/tool"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool

	planModel  string
	planOut    string
	planFormat string
	planAxes   string
	planDepth  float64
)

var rootCmd = &cobra.Command{
	Use:     "swarf",
	Version: "dev",
	Short:   "Raster toolpath planner for STL reliefs",
	Long: `swarf turns a triangulated relief into depth-banded toolpaths.

A job script (a small Lisp) names the model, the tools and the cut settings.
Flags on the plan command override the script.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func setVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func execute() error {
	return rootCmd.Execute()
}

func setupLogging() {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	cam.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

var planCmd = &cobra.Command{
	Use:   "plan [job-file]",
	Short: "Plan toolpaths for a job",
	Long: `Plan evaluates the job script (or the default job when none is given),
ingests the model and writes the planned toolpaths.

Examples:
  swarf plan examples/relief.job
  swarf plan --model part.stl --depth 6 --out part.svg`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	app := NewApp()
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	jr := app.LoadJob(path)
	if !jr.OK() {
		for _, e := range jr.Errors {
			printError(e.Error())
		}
		return fmt.Errorf("job %s has %d errors", path, len(jr.Errors))
	}
	cfg := jr.Config
	warnings, err := finalizeJob(cmd, cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printWarning(w.Error())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var progress cam.Progress
	if !quiet {
		progress = newBarProgress(cmd.ErrOrStderr())
	}
	res, err := app.Plan(ctx, cfg, progress)
	if err != nil {
		return err
	}
	doc, err := app.Export(res, cfg)
	if err != nil {
		return err
	}

	if quiet {
		return nil
	}
	printSection("Plan")
	printLabelValue("run", res.RunID)
	printLabelValue("model", fmt.Sprintf("%s (%d triangles)", res.Model, res.Triangles))
	printLabelValue("stock", fmt.Sprintf("%.2f x %.2f", res.Stock.X, res.Stock.Y))
	printLabelValue("depth", fmt.Sprintf("%.2f", res.Depth))
	printLabelValue("collections", len(doc.Collections))
	printLabelValue("segments", doc.Segments())
	printLabelValue("elapsed", res.Elapsed.Round(time.Millisecond))
	for _, a := range res.Advisories {
		printWarning(a)
	}
	printSuccess(fmt.Sprintf("wrote %s (%s)", cfg.Output, cfg.Format))
	return nil
}

// finalizeJob applies the plan flags to cfg and validates the result, so
// findings reflect the job as it will actually run.
func finalizeJob(cmd *cobra.Command, cfg *job.Config) ([]job.ValidationError, error) {
	if err := applyPlanFlags(cmd, cfg); err != nil {
		return nil, err
	}
	v := cfg.Validate()
	if len(v.Errors) > 0 {
		for _, e := range v.Errors {
			printError(e.Error())
		}
		return nil, fmt.Errorf("job has %d errors after applying flags", len(v.Errors))
	}
	return v.Warnings, nil
}

// applyPlanFlags overrides evaluated job fields with explicit flags.
func applyPlanFlags(cmd *cobra.Command, cfg *job.Config) error {
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = planModel
	}
	if flags.Changed("axes") {
		t, err := stl.ParseTransform(planAxes)
		if err != nil {
			return err
		}
		cfg.Axes = t
	}
	if flags.Changed("depth") {
		cfg.CutoutDepth = planDepth
	}
	if flags.Changed("out") {
		cfg.Output = planOut
		cfg.Format = job.FormatFromPath(planOut)
	}
	if flags.Changed("format") {
		f, err := job.ParseFormat(planFormat)
		if err != nil {
			return err
		}
		cfg.Format = f
	}
	return nil
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the built-in tool library",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		lib := tool.Library()
		sort.Slice(lib, func(i, j int) bool { return lib[i].ID < lib[j].ID })
		out := cmd.OutOrStdout()
		head := color.New(color.FgCyan, color.Bold)
		_, _ = head.Fprintf(out, "%-5s %-22s %-9s %8s %9s %6s\n", "ID", "NAME", "SHAPE", "DIAMETER", "STEPOVER", "DOC")
		for _, p := range lib {
			fmt.Fprintf(out, "%-5d %-22s %-9s %8.2f %9.2f %6.2f\n", p.ID, p.Name, p.Shape, p.Diameter, p.Stepover, p.DepthOfCut)
		}
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo [out.stl]",
	Short: "Write the demo relief as binary STL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "demo.stl"
		if len(args) == 1 {
			path = args[0]
		}
		m, err := NewApp().Demo(path)
		if err != nil {
			return err
		}
		if !quiet {
			printSuccess(fmt.Sprintf("wrote %s (%d triangles)", path, m.TriangleCount()))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(rootCmd.Version))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug detail")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors and hide progress")

	planCmd.Flags().StringVarP(&planModel, "model", "m", "", "STL model path")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "output path; the extension picks the format")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "", "output format: json, msgpack, svg or dxf")
	planCmd.Flags().StringVar(&planAxes, "axes", "", "axis transform: identity, yz or xz")
	planCmd.Flags().Float64VarP(&planDepth, "depth", "d", 0, "cutout depth")

	rootCmd.AddCommand(planCmd, toolsCmd, demoCmd, versionCmd)
}
