package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/solarsizer/internal/controllers"
	"github.com/Agrid-Dev/solarsizer/internal/planner"
	"github.com/Agrid-Dev/solarsizer/internal/project"
	"github.com/Agrid-Dev/solarsizer/internal/report"
)

func newSizeCmd(load func() (*runtime, error)) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "size <project>",
		Short: "Size the project in a .yaml/.yml/.json file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = rt.log.Sync() }()

			proj, err := project.LoadFile(args[0])
			if err != nil {
				return err
			}
			plan, err := rt.planner.Plan(proj)
			if err != nil {
				return fmt.Errorf("size %s: %w", args[0], err)
			}
			return writePlan(cmd.OutOrStdout(), plan, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or csv")
	return cmd
}

func writePlan(w io.Writer, plan planner.Plan, format string) error {
	switch format {
	case "text", "":
		return report.WriteText(w, plan.Document())
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(controllers.ToPlanDTO(plan))
	case "csv":
		return report.WriteCSV(w, plan.BOM)
	default:
		return fmt.Errorf("unknown format %q: want text, json or csv", format)
	}
}
