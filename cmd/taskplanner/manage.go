package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskplanner/internal/model"
)

// resolveTask finds a task by full id or by an id prefix that matches exactly
// one task.
func resolveTask(ctx context.Context, a *app, ref string) (*model.Task, error) {
	tasks, err := a.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	t, err := model.NewTaskIndex(tasks).Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// taskAction builds a one-argument command that resolves the task and hands it
// to fn.
func taskAction(opts *rootOptions, use, short string, fn func(cmd *cobra.Command, a *app, t *model.Task) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [task]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				t, err := resolveTask(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				return fn(cmd, a, t)
			})
		},
	}
}

func doneCmd(opts *rootOptions) *cobra.Command {
	return taskAction(opts, "done", "Mark a task done", func(cmd *cobra.Command, a *app, t *model.Task) error {
		if _, err := a.tasks.CompleteTask(cmd.Context(), t.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "done: %s\n", t.Title)
		return nil
	})
}

func toggleCmd(opts *rootOptions) *cobra.Command {
	return taskAction(opts, "toggle", "Flip a task between pending and done", func(cmd *cobra.Command, a *app, t *model.Task) error {
		updated, err := a.tasks.ToggleComplete(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", updated.Status, updated.Title)
		return nil
	})
}

func rmCmd(opts *rootOptions) *cobra.Command {
	return taskAction(opts, "rm", "Delete a task and its subtasks", func(cmd *cobra.Command, a *app, t *model.Task) error {
		if err := a.tasks.DeleteTask(cmd.Context(), t.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", t.Title)
		return nil
	})
}

func editCmd(opts *rootOptions) *cobra.Command {
	var title, date, clock, desc, priority string
	cmd := taskAction(opts, "edit", "Change a task's title, due date or priority", func(cmd *cobra.Command, a *app, t *model.Task) error {
		flags := cmd.Flags()
		if flags.Changed("title") {
			t.Title = strings.TrimSpace(title)
		}
		if flags.Changed("date") {
			t.DueDate = date
		}
		if flags.Changed("time") {
			t.DueTime = clock
		}
		if flags.Changed("desc") {
			t.Description = desc
		}
		if flags.Changed("priority") {
			t.Priority = model.Priority(priority)
		}
		if err := a.tasks.UpdateTask(cmd.Context(), *t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", t.Title)
		return nil
	})
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Due date (YYYY-MM-DD, empty clears)")
	cmd.Flags().StringVarP(&clock, "time", "t", "", "Due time (HH:MM, empty clears)")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority (low, medium, high, critical)")
	return cmd
}

func timerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Track focus time on a task",
	}
	cmd.AddCommand(taskAction(opts, "start", "Start the focus timer", func(cmd *cobra.Command, a *app, t *model.Task) error {
		if _, err := a.tasks.StartTimer(cmd.Context(), t.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "timer started: %s\n", t.Title)
		return nil
	}))
	cmd.AddCommand(taskAction(opts, "stop", "Stop the focus timer", func(cmd *cobra.Command, a *app, t *model.Task) error {
		updated, err := a.tasks.StopTimer(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "timer stopped: %s, %d min in total\n", updated.Title, *updated.ActualMinutes)
		return nil
	}))
	return cmd
}

func breakdownCmd(opts *rootOptions) *cobra.Command {
	return taskAction(opts, "breakdown", "Ask the model for subtasks and add them", func(cmd *cobra.Command, a *app, t *model.Task) error {
		if a.suggestions == nil {
			return errors.New("subtask suggestions are off, set OPENAI_API_KEY")
		}
		created, err := a.suggestions.Breakdown(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		for _, sub := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "+ %s\n", sub.Title)
		}
		return nil
	})
}

func categoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				cats, err := a.categories.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range cats {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", c.ID, c.Name, c.Color)
				}
				return nil
			})
		},
	})

	var color string
	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				c, err := a.categories.CreateCategory(cmd.Context(), strings.Join(args, " "), color)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", c.ID)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&color, "color", "c", "", "Display color")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a category; tasks keep existing without it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				return a.categories.DeleteCategory(cmd.Context(), args[0])
			})
		},
	})
	return cmd
}

func projectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				projects, err := a.categories.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range projects {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", p.ID, p.Name, p.Priority)
				}
				return nil
			})
		},
	})

	var p model.Project
	var priority string
	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = strings.Join(args, " ")
			p.Priority = model.Priority(priority)
			return withApp(opts, func(a *app) error {
				created, err := a.categories.CreateProject(cmd.Context(), p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", created.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&p.Description, "desc", "", "Description")
	add.Flags().StringVarP(&p.Color, "color", "c", "", "Display color")
	add.Flags().StringVarP(&p.DueDate, "date", "d", "", "Due date (YYYY-MM-DD)")
	add.Flags().StringVarP(&priority, "priority", "p", "", "Priority (low, medium, high, critical)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a project; its tasks are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				return a.categories.DeleteProject(cmd.Context(), args[0])
			})
		},
	})
	return cmd
}

func blockCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Plan a day in time blocks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [date]",
		Short: "List the blocks of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				blocks, err := a.blocks.List(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, b := range blocks {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s-%s  %s  (%d tasks)\n", b.ID, b.StartTime, b.EndTime, b.Title, len(b.TaskIDs))
				}
				return nil
			})
		},
	})

	var color string
	add := &cobra.Command{
		Use:   "add [date] [start] [end] [title]",
		Short: "Add a block, e.g. add 2025-06-01 08:00 09:30 Deep work",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			block := model.TimeBlock{
				StartTime: args[1],
				EndTime:   args[2],
				Title:     strings.Join(args[3:], " "),
				Color:     color,
			}
			return withApp(opts, func(a *app) error {
				saved, err := a.blocks.Save(cmd.Context(), args[0], block)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", saved.ID)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&color, "color", "c", "", "Display color")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [date] [block]",
		Short: "Delete a block; assigned tasks are kept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				return a.blocks.Delete(cmd.Context(), args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "assign [date] [block] [task]",
		Short: "Plan a task into a block",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				t, err := resolveTask(cmd.Context(), a, args[2])
				if err != nil {
					return err
				}
				return a.blocks.Assign(cmd.Context(), args[0], args[1], t.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unassign [date] [block] [task]",
		Short: "Take a task out of a block",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				return a.blocks.Unassign(cmd.Context(), args[0], args[1], args[2])
			})
		},
	})
	return cmd
}
