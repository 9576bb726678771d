package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/piwi3910/SlabNest/internal/project"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := project.DefaultConfigPath()
	if len(args) == 1 {
		path = args[0]
	}
	if err := project.SaveConfig(path, model.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigProfiles(cmd *cobra.Command, _ []string) error {
	custom, err := project.LoadProfiles(project.DefaultProfilesPath())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tALGORITHM\tSAMPLER\tSAMPLES\tDEPTH")
	for _, p := range append(project.BuiltInProfiles(), custom...) {
		kind := "custom"
		if p.IsBuiltIn {
			kind = "built-in"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			p.Name, kind, p.Config.Algorithm, p.Config.Sampler, p.Config.NSamplesPerItem, p.Config.CDE.QuadTree.MaxDepth)
	}
	return tw.Flush()
}
