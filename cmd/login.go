package cmd

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hyejinbaek/cognition-ai-proj/internal/auth"
	"github.com/hyejinbaek/cognition-ai-proj/internal/cliconfig"
	"github.com/hyejinbaek/cognition-ai-proj/pkg/client"
)

var loginCmd = &cobra.Command{
	Use:   "login TOKEN",
	Short: "Save an admin session token for a triage server",
	Long: `Verifies the session token against the server and saves it locally, so later
admin commands (audit, history, tasks) are authenticated.`,
	Example: `  triage login "$(triage token mint)" --server http://localhost:8080`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]
		server := viper.GetString(ServerAddrKey)
		if server == "" {
			return errors.New("server address not configured, provide via --server or TRIAGE_ADDR")
		}

		// any admin route verifies the token
		cli, err := client.New(server, client.WithAuthToken(token))
		if err != nil {
			return err
		}
		if _, correlation, err := cli.ListTasks(cmd.Context()); err != nil {
			return logError(err, correlation, "token was not accepted by the server")
		}

		store, err := cliconfig.Open()
		if err != nil {
			return err
		}
		cred := cliconfig.Credential{Token: token}

		// the server already verified the signature
		var claims auth.Claims
		if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil {
			cred.Subject = claims.Subject
			if claims.ExpiresAt != nil {
				cred.ExpiresAt = claims.ExpiresAt.Time
			}
		} else {
			log.Debug().Err(err).Msg("token claims not readable, saving without expiry")
		}

		host, err := store.Put(server, cred)
		if err != nil {
			return err
		}
		if err := store.Save(); err != nil {
			return logError(err, "", "login succeeded but could not save credentials")
		}

		if cred.ExpiresAt.IsZero() {
			logSuccess("saved session for %s", bold(host))
		} else {
			logSuccess("saved session for %s, valid until %s", bold(host), cred.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session of a triage server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		server := viper.GetString(ServerAddrKey)
		if server == "" {
			return errors.New("server address not configured, provide via --server or TRIAGE_ADDR")
		}
		store, err := cliconfig.Open()
		if err != nil {
			return err
		}
		removed, err := store.Remove(server)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println(faint("no saved session for " + server))
			return nil
		}
		if err := store.Save(); err != nil {
			return err
		}
		logSuccess("removed session for %s", bold(server))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
