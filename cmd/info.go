package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/buildinfo"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show version information of the CLI or a server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !f.Remote() {
			info := buildinfo.GetBuildInfo()
			printInfo(&info)
			return nil
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		log.Debug().Msg("Fetching build info from server...")
		info, correlation, err := cli.Info(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to get info from server")
		}
		printInfo(info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printInfo(info *buildinfo.Info) {
	fmt.Println(bold("\n── " + info.Service + " Build Information ──"))
	fmt.Printf("  %s:    %s\n", faint("Version"), info.Version)
	fmt.Printf("  %s:     %s\n", faint("Commit"), info.CommitHash)
	fmt.Printf("  %s:      %s\n", faint("About"), info.About)
}
