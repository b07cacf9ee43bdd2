package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskplanner/internal/model"
	"taskplanner/internal/service"
	"taskplanner/internal/timeutil"
	"taskplanner/internal/triage"
)

func tasksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			week, _ := cmd.Flags().GetBool("week")
			return withApp(opts, func(a *app) error {
				tasks, err := a.tasks.List(cmd.Context())
				if err != nil {
					return err
				}
				idx := model.NewTaskIndex(tasks)
				shown := tasks
				if week {
					today := timeutil.StartOfDay(time.Now())
					if shown, err = a.tasks.DueBetween(cmd.Context(), today, today.AddDate(0, 0, 7)); err != nil {
						return err
					}
				}
				out := cmd.OutOrStdout()
				for _, t := range shown {
					if t.IsCompleted() && !all {
						continue
					}
					mark := " "
					if t.IsCompleted() {
						mark = "x"
					}
					fmt.Fprintf(out, "[%s] %s  %s%s\n", mark, t.ID[:min(8, len(t.ID))], idx.Label(t.ID), dueSuffix(t))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	cmd.Flags().BoolP("week", "w", false, "Only pending tasks due in the next seven days")
	return cmd
}

func addCmd(opts *rootOptions) *cobra.Command {
	var in service.TaskInput
	var priority, parent string
	var estimate int
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			if priority != "" {
				p := model.Priority(priority)
				if !p.IsValid() {
					return fmt.Errorf("unknown priority %q", priority)
				}
				in.Priority = p
			}
			if estimate > 0 {
				in.EstimatedMinutes = &estimate
			}
			return withApp(opts, func(a *app) error {
				if parent != "" {
					p, err := resolveTask(cmd.Context(), a, parent)
					if err != nil {
						return err
					}
					in.ParentID = &p.ID
				}
				task, err := a.tasks.CreateTask(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in.DueDate, "date", "d", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&in.DueTime, "time", "t", "", "Due time (HH:MM)")
	cmd.Flags().StringVar(&in.Description, "desc", "", "Description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority (low, medium, high, critical)")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "Estimated minutes")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task id or id prefix")
	return cmd
}

func remindersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Show what is overdue or due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				snap, err := a.reminders.Evaluate(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(snap.Reminders) == 0 {
					fmt.Fprintln(out, "Nothing is due.")
					return nil
				}
				for _, r := range snap.Reminders {
					fmt.Fprintf(out, "%-9s %s (%s)\n", r.Urgency, r.Label(), r.Message)
				}
				return nil
			})
		},
	}
}

func nextCmd(opts *rootOptions) *cobra.Command {
	var minutes int
	var energy, blocker string
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Pick up to three tasks that fit the time and energy you have",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes <= 0 {
				return fmt.Errorf("--minutes must be positive")
			}
			e, ok := triage.ParseEnergy(energy)
			if !ok {
				return fmt.Errorf("unknown energy %q", energy)
			}
			criteria := triage.Criteria{Minutes: minutes, Energy: e, Blocker: triage.ParseBlocker(blocker)}
			return withApp(opts, func(a *app) error {
				tasks, err := a.tasks.List(cmd.Context())
				if err != nil {
					return err
				}
				res := triage.Recommend(criteria, tasks, nil)
				out := cmd.OutOrStdout()
				if res.Fallback() {
					fmt.Fprintln(out, "No task fits right now. Try one of these:")
				}
				for i, title := range res.Titles() {
					fmt.Fprintf(out, "%d. %s\n", i+1, title)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 15, "Minutes available")
	cmd.Flags().StringVarP(&energy, "energy", "e", string(triage.EnergyMedium), "Energy level (low, medium, high)")
	cmd.Flags().StringVarP(&blocker, "blocker", "b", "", "What is in the way (too many choices, decision fatigue, quick win)")
	return cmd
}

func syncCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sync [date]",
		Short: "Mirror the time blocks of a day into the calendar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := timeutil.FormatDate(time.Now())
			if len(args) == 1 {
				if _, err := time.Parse(timeutil.DateLayout, args[0]); err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				date = args[0]
			}
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				if all {
					for _, d := range a.calendar.SyncAll(cmd.Context()) {
						fmt.Fprintf(out, "synced %s\n", d)
					}
					return nil
				}
				a.calendar.SyncDay(cmd.Context(), date)
				events, err := a.calendar.EventsOn(cmd.Context(), date)
				if err != nil {
					return err
				}
				for _, ev := range events {
					fmt.Fprintf(out, "%s  %s-%s  %s\n", ev.Source, timeutil.ClockPart(ev.Start), timeutil.ClockPart(ev.End), ev.Title)
					if ev.Description != "" {
						fmt.Fprintf(out, "    %s\n", ev.Description)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Sync every date that has time blocks")
	return cmd
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tasks, categories and projects as a JSON backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				var w io.Writer = cmd.OutOrStdout()
				if path != "" && path != "-" {
					f, err := os.Create(path)
					if err != nil {
						return fmt.Errorf("create %s: %w", path, err)
					}
					defer f.Close()
					w = f
				}
				return a.backup.Export(cmd.Context(), w)
			})
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func importCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all tasks, categories and projects with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			return withApp(opts, func(a *app) error {
				stats, err := a.backup.Import(cmd.Context(), r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks, %d categories, %d projects\n", stats.Tasks, stats.Categories, stats.Projects)
				return nil
			})
		},
	}
}

func dueSuffix(t model.Task) string {
	if t.DueDate == "" {
		return ""
	}
	if t.DueTime == "" {
		return "  (due " + t.DueDate + ")"
	}
	return "  (due " + t.DueDate + " " + t.DueTime + ")"
}
