package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/williampepple1/desktop-weekly-planner/internal/model"
	"github.com/williampepple1/desktop-weekly-planner/internal/planner"
)

func taskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks from the command line",
	}

	cmd.AddCommand(taskAddCmd(opts))
	cmd.AddCommand(taskListCmd(opts))
	cmd.AddCommand(taskUpdateCmd(opts))
	cmd.AddCommand(taskDeleteCmd(opts))
	cmd.AddCommand(taskStatusCmd(opts))
	cmd.AddCommand(taskDayCmd(opts))

	return cmd
}

// withService opens the app for the duration of fn.
func withService(opts *rootOptions, fn func(ctx context.Context, svc *planner.Service) error) error {
	a, err := openApp(opts, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a.svc)
}

func weekOrCurrent(week string) string {
	if strings.TrimSpace(week) == "" {
		return model.WeekID(time.Now())
	}
	return week
}

func taskAddCmd(opts *rootOptions) *cobra.Command {
	var req planner.CreateTaskRequest
	var description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a week",
		Long: `Add a task and print its id.

Examples:
  weekly-planner task add --title "Gym" --day monday
  weekly-planner task add --title "Report" --day friday --priority high --week 2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			req.WeekID = weekOrCurrent(req.WeekID)
			return withService(opts, func(ctx context.Context, svc *planner.Service) error {
				id, err := svc.AddTask(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&req.Day, "day", "", "day of the week, monday..sunday (required)")
	cmd.Flags().StringVar(&req.Status, "status", string(model.StatusTodo), "todo, in-progress or completed")
	cmd.Flags().StringVar(&req.Priority, "priority", string(model.PriorityMedium), "low, medium or high")
	cmd.Flags().StringVar(&req.WeekID, "week", "", "week id YYYY-MM-DD (defaults to the current week)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("day")

	return cmd
}

func taskListCmd(opts *rootOptions) *cobra.Command {
	var week string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a week in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, svc *planner.Service) error {
				tasks, err := svc.GetTasksForWeek(ctx, weekOrCurrent(week))
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(tasks)
				}
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&week, "week", "", "week id YYYY-MM-DD (defaults to the current week)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	return cmd
}

func taskUpdateCmd(opts *rootOptions) *cobra.Command {
	var title, description, day, status, priority string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change some fields of a task",
		Long: `Change only the fields given as flags.

Examples:
  weekly-planner task update 3f2c... --title "Gym (legs)" --priority high`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req planner.UpdateTaskRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("day") {
				req.Day = &day
			}
			if flags.Changed("status") {
				req.Status = &status
			}
			if flags.Changed("priority") {
				req.Priority = &priority
			}

			return withService(opts, func(ctx context.Context, svc *planner.Service) error {
				affected, err := svc.UpdateTask(ctx, args[0], req)
				if err != nil {
					return err
				}
				printAffected(cmd.OutOrStdout(), "updated", affected)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&day, "day", "", "new day")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	return cmd
}

func taskDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, svc *planner.Service) error {
				affected, err := svc.DeleteTask(ctx, args[0])
				if err != nil {
					return err
				}
				printAffected(cmd.OutOrStdout(), "deleted", affected)
				return nil
			})
		},
	}
}

func taskStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <todo|in-progress|completed>",
		Short: "Set the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, svc *planner.Service) error {
				affected, err := svc.UpdateTaskStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printAffected(cmd.OutOrStdout(), "updated", affected)
				return nil
			})
		},
	}
}

func taskDayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "day <id> <monday..sunday>",
		Short: "Move a task to another day of its week",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, svc *planner.Service) error {
				affected, err := svc.UpdateTaskDay(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printAffected(cmd.OutOrStdout(), "moved", affected)
				return nil
			})
		},
	}
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	for _, task := range tasks {
		fmt.Fprintf(w, "%s  %-9s  %-11s  %-6s  %s\n", task.ID, task.Day, task.Status, task.Priority, task.Title)
	}
}

func printAffected(w io.Writer, verb string, affected int64) {
	if affected == 0 {
		fmt.Fprintln(w, "no matching task")
		return
	}
	fmt.Fprintf(w, "%s %d task\n", verb, affected)
}
