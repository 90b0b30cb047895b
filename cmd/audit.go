package cmd

import (
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Administrative audit commands",
	Long:  `View the decision log of a server. Requires an admin session (triage login).`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
