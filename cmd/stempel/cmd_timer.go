package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
	"github.com/christopherklint97/stempel/internal/tui"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the live dashboard",
	Args:  cobra.NoArgs,
	RunE:  runDash,
}

var startCmd = &cobra.Command{
	Use:   "start [project]",
	Short: "Start the timer (pick a project when none is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var switchCmd = &cobra.Command{
	Use:   "switch <project>",
	Short: "Move the running timer to another project",
	Args:  cobra.ExactArgs(1),
	RunE:  runSwitch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running timer and this week's numbers",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	startCmd.Flags().Bool("home-office", false, "Mark the entry as home office")
}

func runDash(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(tui.NewDashboard(a.tracker), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	homeOffice, _ := cmd.Flags().GetBool("home-office")

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	var project *domain.Project
	if len(args) == 1 {
		project, err = a.resolveProject(ctx, args[0], false)
		if err != nil {
			return err
		}
	} else {
		projects, err := a.activeProjects(ctx)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			return fmt.Errorf("no projects yet, add one with: stempel projects add <name> --company <company>")
		}
		picker := tui.NewProjectPickerApp("Start timer", projects, a.tracker.LastProject(ctx))
		if _, err := tea.NewProgram(picker).Run(); err != nil {
			return fmt.Errorf("running project picker: %w", err)
		}
		project = picker.Selected()
		if project == nil {
			fmt.Println("Canceled.")
			return nil
		}
	}

	entry, err := a.tracker.Start(ctx, *project, homeOffice)
	if errors.Is(err, tracker.ErrAlreadyRunning) {
		return fmt.Errorf("%w (use 'stempel switch' or 'stempel stop')", err)
	}
	if err != nil {
		return err
	}
	a.offlineNotice()

	fmt.Printf("Started %s (%s) at %s\n",
		project.Name, project.Company.DisplayName(), entry.StartTime.In(stats.Location()).Format("15:04"))
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	snap, err := a.tracker.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.Running == nil {
		return tracker.ErrNotRunning
	}

	stopped, err := a.tracker.Stop(ctx)
	if err != nil {
		return err
	}
	a.offlineNotice()

	fmt.Printf("Stopped %s after %s\n", projectLabel(snap.RunningProject, stopped.Company),
		stats.FormatShort(stopped.Seconds(*stopped.EndTime)))
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	project, err := a.resolveProject(ctx, args[0], false)
	if err != nil {
		return err
	}
	entry, err := a.tracker.Switch(ctx, *project)
	if err != nil {
		return err
	}
	a.offlineNotice()

	if entry == nil {
		fmt.Printf("No timer running. %s will be preselected on the next start.\n", project.Name)
		return nil
	}
	fmt.Printf("Switched to %s (%s)\n", project.Name, project.Company.DisplayName())
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.tracker.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	a.offlineNotice()

	if snap.Running == nil {
		fmt.Println("No timer running.")
	} else {
		running := snap.Running
		fmt.Printf("● %s  %s  since %s",
			stats.FormatClock(snap.Elapsed),
			projectLabel(snap.RunningProject, running.Company),
			running.StartTime.In(stats.Location()).Format("15:04"))
		if running.IsHomeOffice {
			fmt.Print("  [home office]")
		}
		fmt.Println()
	}

	s := snap.Summary
	fmt.Printf("\nKW %d: %s tracked, %s to go, overtime %s\n",
		s.ISOWeek, stats.FormatShort(s.KWSeconds), stats.FormatShort(s.ToGoSeconds),
		stats.FormatSigned(s.OvertimeBalanceSeconds))
	if n := len(snap.OpenTodos); n > 0 {
		fmt.Printf("%d open todo(s)\n", n)
	}
	return nil
}

// projectLabel renders "Project (Company)", or just the company for
// entries without a known project.
func projectLabel(p *domain.Project, company domain.Company) string {
	if p == nil {
		return company.DisplayName()
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Company.DisplayName())
}
