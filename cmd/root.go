package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hyejinbaek/cognition-ai-proj/internal/buildinfo"
	"github.com/hyejinbaek/cognition-ai-proj/internal/logging"
)

// global flags
var userConfig string

const (
	ServerAddrKey = "addr"
	ConfigFileKey = "config"
	SigningKeyKey = "admin.signing_key"
	TokenKey      = "token"
)

var f = NewFactory()

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: fmt.Sprintf("HR request triage (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `triage decides HR requests (meetings, personal time, other work, business trips)
as Approved, Rejected or Held from their category and free-text reason.

Each category has a rule table entry listing the information a reason must contain.
Requests the rules cannot settle are optionally passed to a language model together
with similar past decisions.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		logging.Init(nil)
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using user config file: %s", configPath)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var quiet BeQuietError
		if !errors.As(err, &quiet) {
			log.Error().Err(err).Msg("execution failed")
		}
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&userConfig, "user-config", "",
		"User configuration file for default values (default is $HOME/.triage.yaml)")

	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	bindFlag(flags, logging.LevelKey, "log-level")

	flags.String("log-format", "console", "Log format (console, json)")
	bindFlag(flags, logging.FormatKey, "log-format")

	flags.Bool("no-color", false, "Disable color output")
	bindFlag(flags, logging.NoColorKey, "no-color")

	flags.String("server", "", "Address of a remote triage server, e.g. http://localhost:8080")
	bindFlag(flags, ServerAddrKey, "server")

	flags.StringP("config", "c", "", "Server configuration file (rules, model, audit). Built-in defaults if empty")
	bindFlag(flags, ConfigFileKey, "config")

	viper.SetEnvPrefix("TRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// bindFlag makes the flag the highest priority source of key.
func bindFlag(flags *pflag.FlagSet, key, name string) {
	if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("binding flag --%s: %v", name, err))
	}
}

func initConfig() (string, error) {
	if userConfig != "" {
		viper.SetConfigFile(userConfig)
	} else {
		// search order: current dir, $HOME, XDG config
		viper.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		if cfgDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(cfgDir + "/triage")
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".triage")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
		return "", nil
	}
	return viper.ConfigFileUsed(), nil
}
