package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/solarsizer/internal/project"
)

// promptFunc fills in one load and reports whether another should follow.
type promptFunc func(entry *project.LoadEntry) (more bool, err error)

func newWizardCmd(load func() (*runtime, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "wizard <project>",
		Short: "Add appliances to a project file interactively",
		Long: `wizard asks for appliances one at a time and appends them to the project
file, creating it when missing. The file is then sized and summarised.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = rt.log.Sync() }()

			proj, err := runWizard(args[0], promptLoad)
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted, project not saved")
				return nil
			}
			if err != nil {
				return err
			}

			plan, err := rt.planner.Plan(proj)
			if err != nil {
				return fmt.Errorf("size %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %d loads to %s\n", len(proj.Loads), args[0])
			for _, line := range plan.Summary {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

// runWizard appends prompted loads to the project at path and saves it.
// Nothing is written when prompt fails.
func runWizard(path string, prompt promptFunc) (project.Project, error) {
	if _, err := project.FormatFromPath(path); err != nil {
		return project.Project{}, err
	}

	proj, err := project.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		proj, err = project.Project{}, nil
	}
	if err != nil {
		return project.Project{}, err
	}

	for more := true; more; {
		var entry project.LoadEntry
		if more, err = prompt(&entry); err != nil {
			return project.Project{}, err
		}
		if err := entry.Load().Validate(len(proj.Loads)); err != nil {
			return project.Project{}, err
		}
		proj.AddLoad(entry)
	}

	if err := project.SaveFile(path, proj); err != nil {
		return project.Project{}, err
	}
	return proj, nil
}

func promptLoad(entry *project.LoadEntry) (bool, error) {
	var (
		power = ""
		hours = ""
		qty   = "1"
		surge = "0"
		more  bool
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Appliance").
				Placeholder("e.g., Fridge").
				Value(&entry.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Power (W)").
				Value(&power).
				Validate(nonNegativeFloat),
			huh.NewInput().
				Title("Hours per day").
				Value(&hours).
				Validate(hoursPerDay),
			huh.NewInput().
				Title("Quantity").
				Value(&qty).
				Validate(positiveInt),
			huh.NewInput().
				Title("Surge (W)").
				Description("Peak start-up draw, 0 if none").
				Value(&surge).
				Validate(nonNegativeFloat),
			huh.NewConfirm().
				Title("Critical load?").
				Description("Critical loads are sized again on their own").
				Value(&entry.Critical),
		).Title("Add appliance"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Add another appliance?").
				Value(&more),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return false, err
	}

	entry.Name = strings.TrimSpace(entry.Name)
	entry.PowerWatts, _ = strconv.ParseFloat(power, 64)
	entry.HoursPerDay, _ = strconv.ParseFloat(hours, 64)
	entry.Quantity, _ = strconv.Atoi(qty)
	entry.SurgeWatts, _ = strconv.ParseFloat(surge, 64)
	return more, nil
}

func nonNegativeFloat(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func hoursPerDay(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	if v < 0 || v > 24 {
		return errors.New("must be between 0 and 24")
	}
	return nil
}

func positiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}
