package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule tables",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Validate a rule table document or the server configuration",
	Long: `Validates a rule table document. Without FILE, the server configuration given by
--config is validated, including its rule table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			table, err := config.LoadRuleTable(args[0])
			if err != nil {
				return logError(err, "", "rule table is invalid")
			}
			logSuccess("rule table is valid (%d categories, %d fields)", len(table.Categories), len(table.Fields))
			return nil
		}
		if _, err := f.LoadConfig(); err != nil {
			return logError(err, "", "configuration is invalid")
		}
		logSuccess("configuration is valid")
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective rule table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		printRuleTable(cfg.Rules)
		return nil
	},
}

var rulesDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in rule table document",
	Long:  "Prints the built-in rule table, a starting point for custom tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := os.Stdout.Write(config.DefaultRulesYAML())
		return err
	},
}

func printRuleTable(rt *core.RuleTable) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Rule", "Category", "Aliases", "Required", "Min Tokens", "Outcomes"})

	for _, rule := range rt.Categories {
		required := make([]string, 0, len(rule.Required))
		for _, check := range rule.Required {
			required = append(required, check.Field)
		}
		outcomes := make([]string, 0, len(rule.Outcomes))
		for _, o := range rule.Outcomes {
			outcomes = append(outcomes, fmt.Sprintf("%s ← %s", colorVerdict(o.Verdict), o.When))
		}
		t.AppendRow(table.Row{
			bold(rule.Name),
			rule.Category,
			strings.Join(rule.Aliases, "\n"),
			strings.Join(required, "\n"),
			rule.MinTokens,
			strings.Join(outcomes, "\n"),
		})
	}
	applyTableFormat(t)
	t.Style().Options.SeparateRows = true
	t.Render()
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesValidateCmd, rulesShowCmd, rulesDefaultCmd)
}
