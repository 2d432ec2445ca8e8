package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/calendar"
	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export completed entries as an iCalendar file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Backfill entries from calendar events",
	Long: "Reads an iCalendar file or URL and turns events into completed entries. " +
		"Event titles are matched against project names; unmatched events use --project or are skipped.",
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	exportCmd.Flags().String("ics", "-", "Output file ('-' for stdout)")
	exportCmd.Flags().String("from", "", "First day to include")
	exportCmd.Flags().String("to", "", "Last day to include (default today)")

	importCmd.Flags().String("ics", "", "iCalendar file path or http(s) URL")
	importCmd.Flags().String("from", "7 days ago", "First day to import")
	importCmd.Flags().String("to", "", "Last day to import (default today)")
	importCmd.Flags().String("project", "", "Project for events whose title matches none")
	importCmd.Flags().Bool("dry-run", false, "Show what would be imported")
	importCmd.MarkFlagRequired("ics")
}

// dayRange turns --from/--to into a half-open [start, end) window. An
// empty from means the beginning of time.
func dayRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	end, err := parseDay(to, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end = end.AddDate(0, 0, 1)

	var start time.Time
	if from != "" {
		if start, err = parseDay(from, now); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, domain.ValidationError("--from must not be after --to")
	}
	return start, end, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("ics")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	now := time.Now()
	start, end, err := dayRange(from, to, now)
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	entries, err := a.records.ListTimeEntries(ctx)
	if err != nil {
		return fmt.Errorf("fetching entries: %w", err)
	}
	projects, err := a.allProjects(ctx)
	if err != nil {
		return err
	}
	a.offlineNotice()

	var selected []domain.TimeEntry
	for _, e := range entries {
		if !e.StartTime.Before(start) && e.StartTime.Before(end) {
			selected = append(selected, e)
		}
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	err = calendar.Export(w, selected, projects, now)
	if errors.Is(err, calendar.ErrNothingToExport) {
		fmt.Fprintln(os.Stderr, "No completed entries in range.")
		return nil
	}
	if err != nil {
		return err
	}
	if out != "-" {
		fmt.Printf("Wrote %s\n", out)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("ics")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	fallbackName, _ := cmd.Flags().GetString("project")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	start, end, err := dayRange(from, to, time.Now())
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	projects, err := a.activeProjects(ctx)
	if err != nil {
		return err
	}
	var fallback *domain.Project
	if fallbackName != "" {
		if fallback, err = tracker.ResolveProject(projects, fallbackName); err != nil {
			return err
		}
	}

	events, err := calendar.Fetch(ctx, source, start, end)
	if err != nil {
		return err
	}

	resolve := func(summary string) (*domain.Project, bool) {
		if p, err := tracker.ResolveProject(projects, summary); err == nil {
			return p, true
		}
		return fallback, fallback != nil
	}
	entries, skipped := calendar.ToEntries(events, resolve)

	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	loc := stats.Location()
	for _, e := range entries {
		if !dryRun {
			if err := a.records.CreateTimeEntry(ctx, &e); err != nil {
				return fmt.Errorf("saving entry: %w", err)
			}
		}
		fmt.Printf("  %s %s–%s  %s\n", e.StartTime.In(loc).Format("Mon 02.01."),
			e.StartTime.In(loc).Format("15:04"), e.EndTime.In(loc).Format("15:04"), names[e.ProjectID])
	}
	for _, ev := range skipped {
		fmt.Printf("  skipped %s %q\n", ev.StartTime.In(loc).Format("Mon 02.01. 15:04"), ev.Summary)
	}
	a.offlineNotice()

	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %d entries, skipped %d event(s).\n", verb, len(entries), len(skipped))
	return nil
}
