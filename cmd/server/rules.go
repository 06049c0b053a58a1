package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRulesCmd(a *app) *cobra.Command {
	var taskID string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the automation rules and next step for one task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.loadTasks(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			tasks := c.Services().Tasks
			task, err := tasks.Task(taskID)
			if err != nil {
				return err
			}
			rules, err := tasks.Rules(taskID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s (%s)\n", task.ID, task.MemberName(), task.HealthPlan)
			fmt.Fprintf(w, "Status:   %s\n", task.CurrentStatus)
			if task.NextStatus != "" {
				fmt.Fprintf(w, "Next:     %s (auto-advance: %t)\n", task.NextStatus, task.CanAutoAdvance)
			}
			fmt.Fprintf(w, "Due:      %s\n", task.DueDescription)
			fmt.Fprintf(w, "Priority: %s (%.1f)\n", task.Priority, task.PriorityScore)

			if len(rules) == 0 {
				fmt.Fprintln(w, "No automation rules match.")
				return nil
			}
			fmt.Fprintln(w, "Matching rules:")
			for _, r := range rules {
				fmt.Fprintf(w, "  - %s: %s%s\n", r.ID, r.Name, describeActions(r.Actions.NewStatus, r.Actions.AddNote, r.Actions.Notify, r.Actions.ScheduleReminderDays))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskID, "task", "t", "", "task id")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func describeActions(newStatus, note string, notify bool, reminderDays int) string {
	var parts []string
	if newStatus != "" {
		parts = append(parts, "set status "+newStatus)
	}
	if note != "" {
		parts = append(parts, "add note")
	}
	if reminderDays > 0 {
		parts = append(parts, fmt.Sprintf("remind in %d business days", reminderDays))
	}
	if notify {
		parts = append(parts, "notify assignee")
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
