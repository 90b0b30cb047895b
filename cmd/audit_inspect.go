package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

var auditInspectCmd = &cobra.Command{
	Use:     "inspect ID",
	Short:   "Show full details of a decision log entry",
	Long:    "Shows a decision log entry, looked up by correlation ID or decision ID.",
	Example: `  triage audit inspect 9m4e2mr0ui3e8a215n4g`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msgf("Retrieving entry '%s'...", id)
		audits, correlation, err := cli.ListAudits(cmd.Context(), service.AuditQuery{Limit: 1, CorrelationID: id})
		if err == nil && len(audits) == 0 {
			audits, correlation, err = cli.ListAudits(cmd.Context(), service.AuditQuery{Limit: 1, DecisionID: id})
		}
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit log entry")
		}
		if len(audits) == 0 {
			log.Warn().Str("id", id).Msg("no audit log entries found")
			return nil
		}
		entry := audits[0]

		red := color.New(color.FgRed).SprintFunc()
		printKV := func(key string, val any) {
			fmt.Printf("  %-26s %v\n", faint(key)+":", val)
		}
		orNone := func(s string) any {
			if s == "" {
				return faint("(none)")
			}
			return s
		}

		fmt.Println(bold("\n── Audit Entry ──"))
		printKV("Correlation ID", entry.ID)
		printKV("Decision ID", orNone(entry.DecisionID))
		printKV("Time", entry.Time.Local().Format(time.RFC1123))
		printKV("Action", entry.Action)

		fmt.Println(bold("\n── Request ──"))
		printKV("Label", entry.Label)
		printKV("Category", orNone(string(entry.Category)))
		printKV("Reason", entry.Reason)

		fmt.Println(bold("\n── Decision ──"))
		printKV("Decision", colorVerdict(entry.Decision))
		printKV("Rationale", orNone(entry.Rationale))
		printKV("Source", orNone(string(entry.Source)))
		printKV("Rule", orNone(entry.RuleName))
		if entry.Degraded {
			printKV("Degraded", red("yes, the model or retriever was unavailable"))
		}
		if entry.Error != "" {
			printKV("Error Message", red(entry.Error))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditInspectCmd)
}
