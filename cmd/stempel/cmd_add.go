package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Backfill completed blocks for a day",
	Long: "Backfill completed time for one day. Pass blocks as --block PROJECT=09:00-12:30 " +
		"(repeatable), or run without blocks for an interactive form.",
	Example: "  stempel add --date yesterday --block Website=08:30-12:00 --block Audit=12:30-17:00",
	Args:    cobra.NoArgs,
	RunE:    runAdd,
}

var sickCmd = &cobra.Command{
	Use:   "sick",
	Short: "Record a sick day (08:00–16:00) for a company",
	Args:  cobra.NoArgs,
	RunE:  runSick,
}

func init() {
	addCmd.Flags().String("date", "", "Day to backfill: YYYY-MM-DD, DD.MM.YYYY or e.g. 'yesterday' (default today)")
	addCmd.Flags().StringArray("block", nil, "Block as PROJECT=HH:MM-HH:MM")
	addCmd.Flags().Bool("home-office", false, "Mark all blocks as home office")

	sickCmd.Flags().String("date", "", "Sick day (default today)")
	sickCmd.Flags().String("company", "", "Company: merchandising, salescrew or inkognito")
	sickCmd.MarkFlagRequired("company")
}

func runAdd(cmd *cobra.Command, args []string) error {
	dateFlag, _ := cmd.Flags().GetString("date")
	blockFlags, _ := cmd.Flags().GetStringArray("block")
	homeOffice, _ := cmd.Flags().GetBool("home-office")

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
	if len(projects) == 0 {
		return fmt.Errorf("no projects yet, add one with: stempel projects add <name> --company <company>")
	}

	now := time.Now()
	var (
		day    time.Time
		blocks []tracker.Block
	)
	if len(blockFlags) == 0 {
		day, blocks, err = backfillForm(projects, dateFlag, now)
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("Canceled.")
			return nil
		}
		if err != nil {
			return err
		}
	} else {
		day, err = parseDay(dateFlag, now)
		if err != nil {
			return err
		}
		for _, s := range blockFlags {
			b, err := parseBlock(s, projects, homeOffice)
			if err != nil {
				return err
			}
			blocks = append(blocks, b)
		}
	}

	entries, err := a.tracker.Backfill(ctx, day, blocks)
	if err != nil {
		return err
	}
	a.offlineNotice()

	var total int64
	for _, e := range entries {
		total += e.Seconds(*e.EndTime)
	}
	fmt.Printf("Added %d block(s) on %s, %s total\n", len(entries), day.Format("Mon 02.01.2006"), stats.FormatShort(total))
	return nil
}

// backfillForm asks for the day and then one block at a time.
func backfillForm(projects []domain.Project, dateDefault string, now time.Time) (time.Time, []tracker.Block, error) {
	dateStr := dateDefault
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD, DD.MM.YYYY, 'yesterday', 'last friday'...").
				Placeholder("today").
				Value(&dateStr).
				Validate(func(s string) error {
					_, err := parseDay(s, now)
					return err
				}),
		),
	).Run()
	if err != nil {
		return time.Time{}, nil, err
	}
	day, err := parseDay(dateStr, now)
	if err != nil {
		return time.Time{}, nil, err
	}

	options := make([]huh.Option[string], len(projects))
	for i, p := range projects {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", p.Name, p.Company.DisplayName()), p.ID)
	}

	var blocks []tracker.Block
	from := "08:00"
	for {
		var (
			projectID  string
			to         string
			homeOffice bool
			another    bool
		)
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Block %d on %s", len(blocks)+1, day.Format("Mon 02.01."))).
					Options(options...).
					Value(&projectID),
				huh.NewInput().
					Title("From").
					Value(&from).
					Validate(validateClock),
				huh.NewInput().
					Title("To").
					Placeholder("12:00").
					Value(&to).
					Validate(validateClock),
				huh.NewConfirm().
					Title("Home office?").
					Value(&homeOffice),
				huh.NewConfirm().
					Title("Add another block?").
					Value(&another),
			),
		).Run()
		if err != nil {
			return time.Time{}, nil, err
		}

		var project domain.Project
		for _, p := range projects {
			if p.ID == projectID {
				project = p
			}
		}
		blocks = append(blocks, tracker.Block{Project: project, From: from, To: to, HomeOffice: homeOffice})
		if !another {
			return day, blocks, nil
		}
		from = to
	}
}

func validateClock(s string) error {
	_, _, err := tracker.ParseClock(s)
	return err
}

func runSick(cmd *cobra.Command, args []string) error {
	dateFlag, _ := cmd.Flags().GetString("date")
	companyFlag, _ := cmd.Flags().GetString("company")

	company, err := domain.ParseCompany(companyFlag)
	if err != nil {
		return err
	}
	day, err := parseDay(dateFlag, time.Now())
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.tracker.SickDay(cmd.Context(), day, company); err != nil {
		return err
	}
	a.offlineNotice()

	fmt.Printf("Recorded sick day for %s on %s (%s credited)\n",
		company.DisplayName(), day.Format("Mon 02.01.2006"), stats.FormatShort(stats.SickDaySeconds))
	return nil
}
