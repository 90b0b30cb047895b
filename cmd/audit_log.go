package cmd

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

var auditLogQuery service.AuditQuery

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display decision log entries",
	Example: `  triage audit log -n 10
  triage audit log --decision Rejected --category Meeting`,
	RunE: func(cmd *cobra.Command, args []string) error {
		decision, _ := cmd.Flags().GetString("decision")
		category, _ := cmd.Flags().GetString("category")
		q := auditLogQuery
		q.Decision = core.Verdict(decision)
		q.Category = core.Category(category)

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), q)
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit log")
		}
		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Correlation", "Category", "Reason", "Decision", "Source", "Error",
		})

		for _, e := range audits {
			source := string(e.Source)
			if e.Degraded {
				source = redCross + " " + source
			}
			t.AppendRow(table.Row{
				e.Time.Local().Format(time.DateTime),
				e.ID,
				e.Category,
				truncate(e.Reason, 30),
				colorVerdict(e.Decision),
				source,
				truncate(e.Error, 30),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().IntVarP(&auditLogQuery.Limit, "limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().StringVar(&auditLogQuery.CorrelationID, "correlation-id", "", "Only entries of this request")
	auditLogCmd.Flags().String("decision", "", "Only Approved, Rejected or Held decisions")
	auditLogCmd.Flags().String("category", "", "Only this category (e.g. Meeting)")
}
