package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/SlabNest/internal/engine"
	"github.com/piwi3910/SlabNest/internal/export"
	"github.com/piwi3910/SlabNest/internal/importer"
	"github.com/piwi3910/SlabNest/internal/layout"
	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/spf13/cobra"
)

// parseSheetSize parses "WxH" (also accepting X and *) into positive
// dimensions.
func parseSheetSize(s string) (float64, float64, error) {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == 'x' || r == '*' })
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("sheet size %q: expected WxH", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("sheet size %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("sheet size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("sheet size %q must be positive", s)
	}
	return w, h, nil
}

// loadInstance reads a JSON instance, or a parts list combined with the
// --sheet/--strip flags. Parts list items and bins get their index as id so
// that a solution can be checked against the same file later.
func loadInstance(path string) (*model.Instance, error) {
	sc := cfg.CDE.ItemSurrogate
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		in, warnings, err := importer.LoadInstance(path, sc)
		for _, w := range warnings {
			log.Warn(w, "file", path)
		}
		return in, err
	}

	var res importer.ImportResult
	switch ext {
	case ".csv", ".txt", ".tsv":
		res = importer.ImportCSV(path, sc)
	case ".xlsx", ".xlsm":
		res = importer.ImportExcel(path, sc)
	case ".dxf":
		rot, err := importer.ParseRotation(rotation)
		if err != nil {
			return nil, err
		}
		res = importer.ImportDXF(path, model.ItemOptions{AllowedRotation: rot}, sc)
	default:
		return nil, fmt.Errorf("%s: unsupported file type %q", path, ext)
	}
	for _, w := range res.Warnings {
		log.Warn(w, "file", path)
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			log.Error(e, "file", path)
		}
		return nil, fmt.Errorf("%s: %d import errors", path, len(res.Errors))
	}
	for i, it := range res.Items {
		it.ID = strconv.Itoa(i)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	in := &model.Instance{Name: name, Items: res.Items}
	switch {
	case stripHeight > 0:
		in.Strip = &model.Strip{Height: stripHeight}
	case sheetSize != "":
		w, h, err := parseSheetSize(sheetSize)
		if err != nil {
			return nil, err
		}
		bin, err := model.NewRectBin(fmt.Sprintf("Slab %gx%g", w, h), w, h, sheetCost, sheetStock)
		if err != nil {
			return nil, err
		}
		bin.ID = "0"
		in.Bins = []*model.Bin{bin}
	default:
		return nil, errors.New("parts lists need --sheet WxH or --strip HEIGHT")
	}
	return in, in.Validate()
}

func runSolve(cmd *cobra.Command, args []string) error {
	in, err := loadInstance(args[0])
	if err != nil {
		return err
	}

	finish, err := startTelemetry(cmd)
	if err != nil {
		return err
	}
	sol, err := engine.New(cfg, engine.WithLogger(log)).Solve(cmd.Context(), in)
	if ferr := finish(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}
	printSummary(cmd, sol)

	if err := export.SaveSolution(solutionOut, sol); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Solution written to %s\n", solutionOut)

	if svgDir == "" && pdfOut == "" && labelsOut == "" {
		return nil
	}
	layouts, err := engine.Rebuild(sol, in, cfg.CDE)
	if err != nil {
		return err
	}
	return writeReports(cmd, sol, layouts)
}

// writeReports writes whichever of the SVG, PDF and label outputs were
// requested.
func writeReports(cmd *cobra.Command, sol *model.Solution, layouts []*layout.Layout) error {
	out := cmd.OutOrStdout()
	if svgDir != "" {
		paths, err := export.ExportSVGs(svgDir, layouts, svgOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d SVG files written to %s\n", len(paths), svgDir)
	}
	if pdfOut != "" {
		if err := export.ExportPDF(pdfOut, sol, layouts); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", pdfOut)
	}
	if labelsOut != "" {
		if err := export.ExportLabels(labelsOut, sol); err != nil {
			return err
		}
		fmt.Fprintf(out, "Labels written to %s\n", labelsOut)
	}
	return nil
}

func printSummary(cmd *cobra.Command, sol *model.Solution) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instance:  %s\n", sol.Instance)
	fmt.Fprintf(out, "Layouts:   %d\n", len(sol.Layouts))
	if sol.StripLength > 0 {
		fmt.Fprintf(out, "Strip:     %.2f\n", sol.StripLength)
	} else {
		fmt.Fprintf(out, "Bin cost:  %.2f\n", sol.BinCost)
	}
	fmt.Fprintf(out, "Placed:    %d\n", sol.PlacedCount())
	fmt.Fprintf(out, "Unplaced:  %d\n", sol.UnplacedCount())
	fmt.Fprintf(out, "Density:   %.1f%%\n", sol.Density*100)
	fmt.Fprintf(out, "Queries:   %d (%.1f%% rejected by surrogates)\n", sol.Queries.Queries, sol.Queries.SurrogateRejectRate()*100)
	fmt.Fprintf(out, "Runtime:   %s\n", sol.Runtime)
}
