package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the historical examples used as model precedents",
	Long:  `Adds and searches past decisions on a server. Requires an admin session (triage login).`,
}

var historyAddCmd = &cobra.Command{
	Use:     "add OUTCOME CATEGORY REASON...",
	Short:   "Add a decided request as precedent",
	Example: `  triage history add Approved PersonalTime 편의점 다녀옴 --rationale "personal errand"`,
	Args:    cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome := core.Verdict(args[0])
		if !outcome.IsValid() {
			return fmt.Errorf("outcome must be one of Approved, Rejected, Held, got '%s'", args[0])
		}
		rationale, _ := cmd.Flags().GetString("rationale")

		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		example, correlation, err := cli.AddExample(cmd.Context(), service.AddExampleRequest{
			Category:  args[1],
			Reason:    strings.Join(args[2:], " "),
			Outcome:   outcome,
			Rationale: rationale,
		})
		if err != nil {
			return logError(err, correlation, "failed to add example")
		}
		logSuccess("added example %s", bold(example.ID))
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Find the past requests most similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, _ := cmd.Flags().GetInt("top")

		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		found, correlation, err := cli.SearchExamples(cmd.Context(), strings.Join(args, " "), k)
		if err != nil {
			return logError(err, correlation, "search failed")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Score", "Category", "Reason", "Outcome", "Rationale"})
		for _, p := range found {
			t.AppendRow(table.Row{
				fmt.Sprintf("%.3f", p.Score),
				p.Example.Category,
				truncate(p.Example.Reason, 40),
				colorVerdict(p.Example.Outcome),
				truncate(p.Example.Rationale, 40),
			})
		}
		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyAddCmd, historySearchCmd)

	historyAddCmd.Flags().String("rationale", "", "Why the request was decided this way")
	historySearchCmd.Flags().IntP("top", "k", 5, "Number of results")
}
