package main

import (
	"fmt"

	"github.com/piwi3910/SlabNest/internal/engine"
	"github.com/piwi3910/SlabNest/internal/export"
	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/spf13/cobra"
)

func loadInstanceAndSolution(args []string) (*model.Instance, *model.Solution, error) {
	in, err := loadInstance(args[0])
	if err != nil {
		return nil, nil, err
	}
	sol, err := export.LoadSolution(args[1])
	if err != nil {
		return nil, nil, err
	}
	return in, sol, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	in, sol, err := loadInstanceAndSolution(args)
	if err != nil {
		return err
	}
	violations, err := engine.Validate(sol, in, cfg.CDE)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(violations) == 0 {
		fmt.Fprintf(out, "OK: %d placements in %d layouts, no violations\n", sol.PlacedCount(), len(sol.Layouts))
		return nil
	}
	for _, v := range violations {
		fmt.Fprintln(out, v)
	}
	return fmt.Errorf("%d violations found", len(violations))
}

func runRender(cmd *cobra.Command, args []string) error {
	in, sol, err := loadInstanceAndSolution(args)
	if err != nil {
		return err
	}
	layouts, err := engine.Rebuild(sol, in, cfg.CDE)
	if err != nil {
		return err
	}
	return writeReports(cmd, sol, layouts)
}
