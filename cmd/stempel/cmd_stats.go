package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show weekly total, target, average and overtime balance",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List tracked days, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the summary as JSON")
	historyCmd.Flags().Int("days", 14, "Number of calendar days to show")
}

func runStats(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

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

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Summary)
	}

	printSummary(os.Stdout, snap)
	return nil
}

// printSummary writes the week block. The week range ends on Sunday and the
// running timer is shown on top of the completed week total.
func printSummary(w io.Writer, snap *tracker.Snapshot) {
	s := snap.Summary
	fmt.Fprintf(w, "KW %d/%d  (%s – %s)\n\n", s.ISOWeek, s.ISOYear,
		s.WeekStart.Format("Mon 02.01."), s.WeekEnd.AddDate(0, 0, -1).Format("Mon 02.01."))
	fmt.Fprintf(w, "  This week   %s", stats.FormatShort(s.KWSeconds))
	if snap.Running != nil {
		fmt.Fprintf(w, "  (+%s running)", stats.FormatShort(snap.Elapsed))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  To go       %s of %s\n", stats.FormatShort(s.ToGoSeconds), stats.FormatShort(stats.WeeklyTarget))
	fmt.Fprintf(w, "  Avg/day     %s\n", stats.FormatShort(s.AvgPerDaySeconds))
	fmt.Fprintf(w, "  Overtime    %s\n", stats.FormatSigned(s.OvertimeBalanceSeconds))
	fmt.Fprintf(w, "  All time    %s\n", stats.FormatShort(s.TotalSeconds))
}

func runHistory(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

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

	cutoff := stats.Day(snap.Now).AddDate(0, 0, -(days - 1))
	groups := stats.History(snap.Entries, snap.Now)

	shown := 0
	for _, g := range groups {
		if g.Date.Before(cutoff) {
			break
		}
		shown++
		printDay(g, snap.Projects)
	}
	if shown == 0 {
		fmt.Printf("Nothing tracked in the last %d day(s).\n", days)
	}
	return nil
}

func printDay(g stats.DayGroup, projects []domain.Project) {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	header := fmt.Sprintf("%s %s  %s", g.Label, g.Date.Format("02.01.2006"), stats.FormatShort(g.AdjustedSeconds))
	if g.SickDay {
		header += "  [sick]"
	} else if g.AdjustedSeconds != g.RawSeconds {
		header += fmt.Sprintf("  (raw %s)", stats.FormatShort(g.RawSeconds))
	}
	fmt.Println(header)

	for _, e := range g.Entries {
		loc := stats.Location()
		span := e.StartTime.In(loc).Format("15:04") + "–" + e.EndTime.In(loc).Format("15:04")
		label := e.Company.DisplayName()
		if name, ok := names[e.ProjectID]; ok {
			label += " / " + name
		}
		var flags []string
		if e.IsSickDay {
			flags = append(flags, "sick")
		}
		if e.IsHomeOffice {
			flags = append(flags, "home office")
		}
		line := fmt.Sprintf("  %s  %-36s %7s", span, label, stats.FormatShort(e.Seconds(*e.EndTime)))
		if len(flags) > 0 {
			line += "  [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Println(line)
	}

	if len(g.Companies) > 1 {
		parts := make([]string, len(g.Companies))
		for i, c := range g.Companies {
			parts[i] = c.Company.DisplayName() + " " + stats.FormatShort(c.Seconds)
		}
		fmt.Println("  = " + strings.Join(parts, " · "))
	}
	fmt.Println()
}
