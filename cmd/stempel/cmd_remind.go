package main

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/scheduler"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Desktop reminders for breaks and the weekly target",
}

var remindRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reminder loop in the foreground",
	Args:  cobra.NoArgs,
	RunE:  runRemind,
}

var remindStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running reminder loop",
	Args:  cobra.NoArgs,
	RunE:  runRemindStop,
}

func init() {
	remindCmd.AddCommand(remindRunCmd, remindStopCmd)
}

func runRemind(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Reminders.Enabled {
		return fmt.Errorf("reminders are disabled (stempel config set reminders.enabled true)")
	}

	// The loop is long-running, so it always logs at the configured level.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: a.cfg.Log.SlogLevel()}))

	ctx, stop := signalContext(cmd)
	defer stop()

	sched := scheduler.New(a.cfg.Reminders, a.tracker, scheduler.DesktopNotifier{}, logger)
	return sched.Run(ctx)
}

func runRemindStop(cmd *cobra.Command, args []string) error {
	pid, err := scheduler.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Printf("Sent stop signal to stempel reminders (PID %d)\n", pid)
	return nil
}
