package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/ai"
	"github.com/christopherklint97/stempel/internal/config"
	"github.com/christopherklint97/stempel/internal/msgraph"
	"github.com/christopherklint97/stempel/internal/tui"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Turn unread mail into todos with AI",
	Long: "Fetches unread inbox mail from Microsoft Graph and proposes a todo for each one. " +
		"With --paste (or when mail is not configured) you paste a mail instead.",
	Args: cobra.NoArgs,
	RunE: runTriage,
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to external services",
}

var authMailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Sign in to Microsoft Graph with a device code",
	Args:  cobra.NoArgs,
	RunE:  runAuthMail,
}

func init() {
	triageCmd.Flags().Bool("paste", false, "Paste a mail instead of reading the inbox")
	triageCmd.Flags().Int("days", 7, "Only look at mail received in the last N days")

	authCmd.AddCommand(authMailCmd)
}

func newGraphAuth(cfg *config.Config, a *app) (*msgraph.Auth, error) {
	if cfg.Mail.Graph.ClientID == "" {
		return nil, fmt.Errorf("mail.graph.client_id is not set (stempel config set mail.graph.client_id <id>)")
	}
	tokens, err := msgraph.DefaultTokenStore()
	if err != nil {
		return nil, err
	}
	return msgraph.NewAuth(cfg.Mail.Graph.ClientID, cfg.Mail.Graph.TenantID, tokens, a.logger), nil
}

func runTriage(cmd *cobra.Command, args []string) error {
	paste, _ := cmd.Flags().GetBool("paste")
	days, _ := cmd.Flags().GetInt("days")

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	cfg := a.cfg

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Model, cfg.OpenAI.APIKey, a.logger)
	if err != nil {
		return err
	}

	var mails []ai.Mail
	if !paste && cfg.Mail.Enabled {
		auth, err := newGraphAuth(cfg, a)
		if err != nil {
			return err
		}
		fetched, err := msgraph.NewClient(auth, a.logger).FetchUnread(ctx, time.Now().AddDate(0, 0, -days))
		if err != nil {
			return fmt.Errorf("reading inbox: %w", err)
		}
		seen, err := a.tracker.TriagedMail(ctx)
		if err != nil {
			return err
		}
		for _, m := range fetched {
			if !seen[m.ID] {
				mails = append(mails, m)
			}
		}
		if len(mails) == 0 {
			fmt.Printf("No new mail to triage (%d unread already seen).\n", len(fetched))
			return nil
		}
		fmt.Printf("Triaging %d mail(s)...\n", len(mails))
	}

	app := tui.NewTriageApp(provider, a.tracker, mails)
	if _, err := tea.NewProgram(app).Run(); err != nil {
		return fmt.Errorf("running triage: %w", err)
	}

	res := app.Result()
	if err := a.tracker.MarkTriaged(ctx, res.Handled); err != nil {
		return err
	}
	a.offlineNotice()

	if len(res.Added) > 0 || res.Skipped > 0 {
		fmt.Printf("%d todo(s) added, %d skipped.\n", len(res.Added), res.Skipped)
	}
	return nil
}

func runAuthMail(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	auth, err := newGraphAuth(a.cfg, a)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd)
	defer stop()
	err = auth.Login(ctx, func(msg string) {
		fmt.Println(msg)
		fmt.Println("Waiting for sign-in...")
	})
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	fmt.Println("Signed in. Enable inbox triage with: stempel config set mail.enabled true")
	return nil
}
