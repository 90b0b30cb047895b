package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

var decideJSON bool

var decideCmd = &cobra.Command{
	Use:   "decide CATEGORY REASON...",
	Short: "Decide a single request",
	Long: `Decides a request locally with the configured rule table, or on a server if --server is set.
Local decisions are not audited.`,
	Example: `  triage decide "PC 사용기록/(업무)회의" "화장실 고도화 미팅, 우드룸, 이승재"
  triage decide BusinessTrip AUTON20240101 서울 본사 미팅 --server http://localhost:8080`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, reason := args[0], strings.Join(args[1:], " ")

		decide := decideLocally
		if f.Remote() {
			decide = decideRemote
		}
		decision, err := decide(cmd, category, reason)
		if err != nil {
			return err
		}

		if decideJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(decision)
		}
		printDecision(decision)
		log.Debug().Str("decision_id", decision.ID).Msg("decided")
		return nil
	},
}

func decideRemote(cmd *cobra.Command, category, reason string) (*core.Decision, error) {
	cli, err := f.GetClient()
	if err != nil {
		return nil, err
	}
	decision, correlation, err := cli.Decide(cmd.Context(), category, reason)
	if err != nil {
		return nil, logError(err, correlation, "decision failed")
	}
	return decision, nil
}

func decideLocally(cmd *cobra.Command, category, reason string) (*core.Decision, error) {
	cfg, err := f.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	rt, err := f.BuildRuntime(cmd.Context(), cfg, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rt.Close() }()

	return rt.Service.Decide(cmd.Context(), service.DecideRequest{Category: category, Reason: reason})
}

func printDecision(d *core.Decision) {
	fmt.Printf("\n%s  %s\n", colorVerdict(d.Verdict), d.Rationale)
	fmt.Printf("  %s %s   %s %s   %s %s\n",
		faint("category:"), d.Category,
		faint("source:"), d.Source,
		faint("rule:"), d.RuleName)
	for _, p := range d.Precedents {
		fmt.Printf("  %s %.2f %s %q\n", faint("precedent"), p.Score, colorVerdict(p.Example.Outcome), truncate(p.Example.Reason, 60))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().BoolVar(&decideJSON, "json", false, "Print the decision as JSON")
}
