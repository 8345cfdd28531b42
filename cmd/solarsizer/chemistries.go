package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newChemistriesCmd(load func() (*runtime, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "chemistries",
		Short: "List the battery chemistries and their assumptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load()
			if err != nil {
				return err
			}

			chems := rt.planner.Chemistries()
			def := rt.planner.Defaults().Chemistry

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Chemistry", "Depth of discharge", "Round-trip efficiency", "")
			for _, name := range chems.Names() {
				p := chems[name]
				mark := ""
				if name == def {
					mark = "default"
				}
				t.Row(name.String(), fmt.Sprintf("%.2f", p.DepthOfDischarge), fmt.Sprintf("%.2f", p.RoundTripEfficiency), mark)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}
