package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "taskplanner",
		Short:         "Personal task planner with due-date reminders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.database, "db", "", "SQLite database path (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd(&opts))
	rootCmd.AddCommand(tasksCmd(&opts))
	rootCmd.AddCommand(addCmd(&opts))
	rootCmd.AddCommand(editCmd(&opts))
	rootCmd.AddCommand(doneCmd(&opts))
	rootCmd.AddCommand(toggleCmd(&opts))
	rootCmd.AddCommand(rmCmd(&opts))
	rootCmd.AddCommand(timerCmd(&opts))
	rootCmd.AddCommand(breakdownCmd(&opts))
	rootCmd.AddCommand(categoryCmd(&opts))
	rootCmd.AddCommand(projectCmd(&opts))
	rootCmd.AddCommand(blockCmd(&opts))
	rootCmd.AddCommand(remindersCmd(&opts))
	rootCmd.AddCommand(nextCmd(&opts))
	rootCmd.AddCommand(syncCmd(&opts))
	rootCmd.AddCommand(exportCmd(&opts))
	rootCmd.AddCommand(importCmd(&opts))

	return rootCmd
}

// withApp opens the app for one command run and closes it afterwards.
func withApp(opts *rootOptions, fn func(*app) error) error {
	a, err := newApp(*opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("close db", "err", err)
		}
	}()
	return fn(a)
}
