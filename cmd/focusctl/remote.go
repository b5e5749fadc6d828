package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"focusboard/backend/internal/dashboard"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the live timer dashboard",
	RunE:  runWatch,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks",
	RunE:  runTasks,
}

var startCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Start a focus session for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func apiClient() (*dashboard.Client, error) {
	if apiToken == "" {
		return nil, errors.New("a token is required: pass --token or set FOCUS_TOKEN")
	}
	return dashboard.NewClient(apiAddr, apiToken), nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := apiClient()
	if err != nil {
		return err
	}

	title := ""
	snap, err := client.State(cmd.Context())
	if err != nil {
		return fmt.Errorf("API not reachable at %s: %w", apiAddr, err)
	}
	if snap.TaskID != "" {
		title = taskTitle(cmd.Context(), client, snap.TaskID)
	}

	if err := dashboard.Run(client, title); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

func taskTitle(ctx context.Context, client *dashboard.Client, taskID string) string {
	tasks, err := client.Tasks(ctx)
	if err != nil {
		return ""
	}
	for _, task := range tasks {
		if task.ID == taskID {
			return task.Title
		}
	}
	return ""
}

func runTasks(cmd *cobra.Command, args []string) error {
	client, err := apiClient()
	if err != nil {
		return err
	}
	tasks, err := client.Tasks(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tESTIMATE\tDONE")
	for _, task := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%d\t%t\n", task.ID, task.Title, task.SessionEstimate(), task.Completed)
	}
	return w.Flush()
}

func runStart(cmd *cobra.Command, args []string) error {
	client, err := apiClient()
	if err != nil {
		return err
	}
	snap, err := client.Start(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("started %s session, %s left\n", snap.SessionType, dashboard.FormatRemaining(snap.RemainingSeconds))
	return nil
}
