package main

import (
	"fmt"
	"log/slog"

	"github.com/piwi3910/SlabNest/internal/export"
	"github.com/piwi3910/SlabNest/internal/logger"
	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/piwi3910/SlabNest/internal/project"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	profileName string
	seed        int64
	useGenetic  bool

	// item list options
	sheetSize   string
	sheetStock  int
	sheetCost   float64
	stripHeight float64
	rotation    string

	// outputs
	solutionOut string
	svgDir      string
	pdfOut      string
	labelsOut   string
	svgOpts     = export.DefaultSVGOptions()
	sliceRes    float64
	metricsOut  string
	traceOut    string

	// cfg is loaded once per invocation before any command runs.
	cfg model.Config
	log *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "slabnest",
		Short: "Nest irregular parts into slabs with a collision detection engine",
		Long: `SlabNest places irregular polygonal parts into stock slabs, or along a
strip of fixed height, without overlaps, holes or forbidden quality zones.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	solveCmd = &cobra.Command{
		Use:   "solve [instance]",
		Short: "Nest an instance and write the solution and reports",
		Long: `Nest a JSON instance, or a CSV, XLSX or DXF parts list. Parts lists
need --sheet (and optionally --stock, --cost) or --strip.`,
		Args: cobra.ExactArgs(1),
		RunE: runSolve, // Defined in cmd_solve.go
	}

	checkCmd = &cobra.Command{
		Use:   "check [instance] [solution]",
		Short: "Verify that a stored solution is feasible",
		Args:  cobra.ExactArgs(2),
		RunE:  runCheck, // Defined in cmd_check.go
	}

	renderCmd = &cobra.Command{
		Use:   "render [instance] [solution]",
		Short: "Draw the layouts of a stored solution as SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  runRender, // Defined in cmd_check.go
	}

	compareCmd = &cobra.Command{
		Use:   "compare [instance]",
		Short: "Solve an instance under several engine settings and compare them",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompare, // Defined in cmd_inspect.go
	}

	inspectCmd = &cobra.Command{
		Use:   "inspect [instance]",
		Short: "Print quadtree statistics per bin and surrogate statistics per item",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect, // Defined in cmd_inspect.go
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file and profiles",
	}
	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration (to ~/.slabnest/config.yaml when no path is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit, // Defined in cmd_config.go
	}
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE:  runConfigShow,
	}
	configProfilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List built-in and custom profiles",
		RunE:  runConfigProfiles,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", project.DefaultConfigPath(), "configuration file (JSON or YAML)")
	pf.StringVar(&profileName, "profile", "", "named profile to use instead of the configuration file")
	pf.Int64Var(&seed, "seed", 0, "override the random seed")
	pf.BoolVar(&useGenetic, "genetic", false, "optimize the item order with the genetic algorithm")

	for _, c := range []*cobra.Command{solveCmd, checkCmd, renderCmd, compareCmd, inspectCmd} {
		f := c.Flags()
		f.StringVar(&sheetSize, "sheet", "", "slab size WxH for parts lists, e.g. 3000x1400")
		f.IntVar(&sheetStock, "stock", 10, "number of slabs available for parts lists")
		f.Float64Var(&sheetCost, "cost", 1, "cost of one slab for parts lists")
		f.Float64Var(&stripHeight, "strip", 0, "nest parts lists into a strip of this height")
		f.StringVar(&rotation, "rotation", "", "allowed rotations for DXF parts (fixed, any, or a list like 0;90;180;270)")
	}

	solveCmd.Flags().StringVarP(&solutionOut, "out", "o", "solution.json", "solution file")
	solveCmd.Flags().StringVar(&svgDir, "svg", "", "write one SVG per layout into this directory")
	solveCmd.Flags().StringVar(&pdfOut, "pdf", "", "write a PDF report")
	solveCmd.Flags().StringVar(&labelsOut, "labels", "", "write a PDF sheet of QR coded part labels")

	for _, c := range []*cobra.Command{solveCmd, compareCmd} {
		c.Flags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics to this file when done")
		c.Flags().StringVar(&traceOut, "trace-out", "", "write trace spans as JSON to this file")
	}

	rf := renderCmd.Flags()
	rf.StringVarP(&svgDir, "out", "o", "svg", "output directory")
	rf.IntVar(&svgOpts.Width, "width", svgOpts.Width, "drawing width in pixels")
	rf.BoolVar(&svgOpts.Labels, "labels", svgOpts.Labels, "draw part labels")
	rf.BoolVar(&svgOpts.QuadTree, "quadtree", false, "overlay the quadtree nodes")
	rf.BoolVar(&svgOpts.Surrogates, "surrogates", false, "overlay the poles and piers of each part")
	rf.BoolVar(&svgOpts.Proximity, "proximity", false, "overlay the hazard proximity grid")
	rf.Float64Var(&svgOpts.SliceResolution, "slices", 0, "overlay vertical scan lines of each part at this spacing")
	rf.StringVar(&pdfOut, "pdf", "", "also write a PDF report")

	inspectCmd.Flags().Float64Var(&sliceRes, "resolution", 1, "scan line spacing for the SEGMENTS column")

	configCmd.AddCommand(configInitCmd, configShowCmd, configProfilesCmd)
	rootCmd.AddCommand(solveCmd, checkCmd, renderCmd, compareCmd, inspectCmd, configCmd)
}

// loadConfig resolves the configuration from the profile or config file,
// applies flag overrides and sets up logging.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if profileName != "" {
		custom, lerr := project.LoadProfiles(project.DefaultProfilesPath())
		if lerr != nil {
			return lerr
		}
		p, ferr := project.FindProfile(profileName, custom)
		if ferr != nil {
			return ferr
		}
		cfg = p.Config
	} else if cfg, err = project.LoadConfig(configPath); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("genetic") && useGenetic {
		cfg.Algorithm = model.AlgorithmGenetic
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log = logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log.Debug("configuration loaded", "path", configPath, "profile", profileName, "algorithm", cfg.Algorithm, "seed", cfg.Seed)
	return nil
}
