package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/piwi3910/SlabNest/internal/engine"
	"github.com/piwi3910/SlabNest/internal/layout"
	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/spf13/cobra"
)

func runCompare(cmd *cobra.Command, args []string) error {
	in, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	finish, err := startTelemetry(cmd)
	if err != nil {
		return err
	}
	results, err := engine.CompareScenarios(cmd.Context(), engine.BuildDefaultScenarios(cfg), in, engine.WithLogger(log))
	if ferr := finish(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tLAYOUTS\tDENSITY\tUNPLACED\tQUERIES\tSURROGATE REJECTS\tRUNTIME")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%d\t%d\t%.1f%%\t%s\n",
			r.Scenario.Name, r.LayoutsUsed, r.Density*100, r.UnplacedCount,
			r.Queries.Queries, r.SurrogateRejectRate*100, r.Solution.Runtime)
	}
	return tw.Flush()
}

func runInspect(cmd *cobra.Command, args []string) error {
	in, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	bins := in.Bins
	if in.Strip != nil {
		strip, err := in.StripBin(in.StripWidthBound())
		if err != nil {
			return err
		}
		bins = []*model.Bin{strip}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instance %q: %d items, %d copies, item area %.2f\n\n", in.Name, len(in.Items), in.TotalDemand(), in.TotalItemArea())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BIN\tHAZARDS\tNODES\tLEAVES\tCLEAR\tSLOTS\tENTIRE\tDEPTH\tPROX CELLS")
	for _, b := range bins {
		l, err := layout.New(b, cfg.CDE, layout.WithLogger(log))
		if err != nil {
			return err
		}
		s := l.CDE().Stats()
		cells := "-"
		if g := l.CDE().ProximityGrid(); g != nil {
			cols, rows := g.Dimensions()
			cells = fmt.Sprintf("%dx%d", cols, rows)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			b.Label, s.Hazards, s.Nodes, s.Leaves, s.ClearNodes, s.HazardSlots, s.EntireSlots, s.Depth, cells)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tVERTICES\tAREA\tPOLES\tFAIL-FAST\tPIERS\tCOVERAGE\tSEGMENTS\tROTATION")
	for _, it := range in.Items {
		s := it.Surrogate
		segments := 0
		for _, line := range it.Shape.Discretize(sliceRes) {
			segments += len(line)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\t%d\t%d\t%.1f%%\t%d\t%s\n",
			it.Label, it.Shape.NumPoints(), it.Area(), len(s.Poles), s.NFFPoles, len(s.Piers), s.PoleCoverage*100, segments, it.AllowedRotation.Kind)
	}
	return tw.Flush()
}
