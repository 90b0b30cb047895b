package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

var whyReplay string

var whyCmd = &cobra.Command{
	Use:   "why [CATEGORY REASON...]",
	Short: "Explain how the rule table decides a request",
	Long: `Shows the evidence found in the reason and every outcome predicate of the category's rule.

With --replay, the request of an audit entry (correlation or decision ID) is re-evaluated
against the current rule table. Replays and --server require an admin session.`,
	Example: `  # Why is this meeting rejected?
  triage why Meeting 회의 참석

  # Would yesterday's decision still hold with the new rules?
  triage why --replay 9m4e2mr0ui3e8a215n4g --server http://localhost:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := service.ExplainRequest{ReplayID: whyReplay}
		if whyReplay == "" {
			if len(args) < 2 {
				return fmt.Errorf("category and reason are required unless --replay is set")
			}
			req.Category, req.Reason = args[0], strings.Join(args[1:], " ")
		}

		if f.Remote() {
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			trace, correlation, err := cli.Explain(cmd.Context(), req)
			if err != nil {
				return logError(err, correlation, "explain failed")
			}
			printTrace(trace)
			return nil
		}

		if whyReplay != "" {
			return fmt.Errorf("--replay needs the audit log of a server, use --server")
		}
		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		rt, err := f.BuildRuntime(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		trace, err := rt.Service.Explain(cmd.Context(), req)
		if err != nil {
			return err
		}
		printTrace(trace)
		return nil
	},
}

func printTrace(trace *core.DecisionTrace) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\n%s for %s: %q\n",
		bold("Evaluation Trace"),
		bold(string(trace.Request.Category)),
		trace.Request.Reason)
	if trace.CorrelationID != "" {
		fmt.Printf("  %s %s\n", faint("correlation:"), trace.CorrelationID)
	}
	fmt.Println(faint("---------------------------------------------------"))

	fmt.Printf("Rule: %s  %s %d\n", bold(trace.RuleName), faint("tokens:"), len(trace.Request.Tokens))
	if trace.Sparse {
		fmt.Printf("  %s\n", yellow("reason is too short to judge missing fields"))
	}

	fmt.Println(bold("\nEvidence"))
	for _, ev := range trace.Evidence {
		if ev.Present {
			fmt.Printf("  %s %-18s %s\n", green("✔"), ev.Field, faint(ev.Match))
		} else {
			fmt.Printf("  %s %s\n", red("✖"), ev.Field)
		}
	}

	fmt.Println(bold("\nOutcomes"))
	for _, res := range trace.OutcomeResults {
		icon := faint("·")
		if res.Matched {
			icon = green("✔")
		}
		fmt.Printf("  %s %-9s %s\n", icon, res.Verdict, res.Expression)
		if res.Error != "" {
			fmt.Printf("      ↳ %s\n", red(res.Error))
		}
	}

	fmt.Println(faint("---------------------------------------------------"))
	fmt.Printf("Decision: %s  %s\n", colorVerdict(trace.FinalDecision), trace.Rationale)
	if !trace.Conclusive {
		fmt.Printf("  %s\n", yellow("inconclusive, the model fallback would be consulted"))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(whyCmd)

	whyCmd.Flags().StringVar(&whyReplay, "replay", "", "Replay the request of this audit entry")
}
