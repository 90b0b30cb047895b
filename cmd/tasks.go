package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/tasks"
	"github.com/hyejinbaek/cognition-ai-proj/pkg/client"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and trigger background tasks of a server",
	Long: `Background tasks reload the rule table (rules.sync) and rebuild the historical
index (history.reindex). Requires an admin session (triage login).`,
}

var tasksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List background tasks and their last result",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		status, correlation, err := cli.ListTasks(cmd.Context())
		if err != nil {
			return logError(err, correlation, "listing tasks failed")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Task", "Runs", "Last Run", "Took", "Next Run", "Result"})
		for _, s := range status {
			t.AppendRow(table.Row{bold(s.Name), s.Runs, ago(s.LastRun), s.LastDuration, until(s.NextRun), taskResult(s)})
		}
		applyTableFormat(t)
		t.Render()
		return nil
	},
}

var tasksLogsCmd = &cobra.Command{
	Use:   "logs NAME",
	Short: "Print the log of the latest run of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minLevel, err := zerolog.ParseLevel(tasksLogsLevel)
		if err != nil {
			return fmt.Errorf("invalid --level: %w", err)
		}
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		return printTaskLogs(cmd.Context(), cli, args[0], minLevel)
	},
}

var tasksTriggerCmd = &cobra.Command{
	Use:   "trigger NAME",
	Short: "Start a task run now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		correlation, err := cli.TriggerTask(cmd.Context(), name)
		if err != nil {
			return logError(err, correlation, "triggering task failed")
		}
		logSuccess("triggered %s", bold(name))

		if !tasksTriggerWait {
			log.Info().Msgf("Run '%s' to follow the run.", color.CyanString("triage tasks logs "+name))
			return nil
		}

		status, err := waitForTask(cmd.Context(), cli, name)
		if err != nil {
			return err
		}
		if err := printTaskLogs(cmd.Context(), cli, name, zerolog.DebugLevel); err != nil {
			return err
		}
		if !status.Succeeded() {
			return logError(errors.New(status.LastError), "", "task run failed")
		}
		return nil
	},
}

var (
	tasksLogsLevel   string
	tasksTriggerWait bool
)

func init() {
	tasksLogsCmd.Flags().StringVar(&tasksLogsLevel, "level", "debug", "Minimum level to print")
	tasksTriggerCmd.Flags().BoolVarP(&tasksTriggerWait, "wait", "w", false, "Wait for the run to finish and print its log")

	tasksCmd.AddCommand(tasksListCmd, tasksLogsCmd, tasksTriggerCmd)
	rootCmd.AddCommand(tasksCmd)
}

// waitForTask polls until the task is no longer running.
func waitForTask(ctx context.Context, cli *client.Client, name string) (*tasks.TaskStatus, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		status, correlation, err := cli.ListTasks(ctx)
		if err != nil {
			return nil, logError(err, correlation, "polling task status failed")
		}
		for _, s := range status {
			if s.Name == name && !s.Running {
				return &s, nil
			}
		}
	}
}

func printTaskLogs(ctx context.Context, cli *client.Client, name string, minLevel zerolog.Level) error {
	entries, correlation, err := cli.GetTaskLogs(ctx, name)
	if err != nil {
		return logError(err, correlation, "retrieving task logs failed")
	}
	if len(entries) == 0 {
		fmt.Println(faint("no log entries, the task has not run yet"))
		return nil
	}
	for _, e := range entries {
		lvl, err := zerolog.ParseLevel(e.Level)
		if err == nil && lvl < minLevel {
			continue
		}
		fmt.Printf("%s %s %s\n", faint(e.Time.Format(time.TimeOnly)), levelTag(e.Level), e.Message)
	}
	return nil
}

func levelTag(level string) string {
	switch level {
	case "debug":
		return faint("DBG")
	case "info":
		return color.GreenString("INF")
	case "warn":
		return color.YellowString("WRN")
	case "error":
		return color.RedString("ERR")
	default:
		return level
	}
}

func taskResult(s tasks.TaskStatus) string {
	switch {
	case s.Running:
		return color.BlueString("running")
	case s.Runs == 0:
		return faint("never ran")
	case s.Succeeded():
		return greenCheck + " ok"
	default:
		return redCross + " " + truncate(s.LastError, 48)
	}
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Round(time.Second).String() + " ago"
}

func until(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return "in " + time.Until(t).Round(time.Second).String()
}
