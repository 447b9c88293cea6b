package main

import (
	"strings"

	"github.com/alexandre-normand/eurekabot"
	"github.com/alexandre-normand/eurekabot/config"
	"github.com/alexandre-normand/eurekabot/qna"
	"github.com/alexandre-normand/eurekabot/store"
	"github.com/alexandre-normand/eurekabot/store/datastoredb"
	"github.com/alexandre-normand/eurekabot/store/surrealstore"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	name = "eurekabot"

	envPrefix     = "EUREKABOT"
	slackTokenEnv = "SLACK_TOKEN"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// Global flags
	configFile  string
	botFilePath string
	environment string
	debug       bool

	// Loaded before any subcommand runs
	v        *viper.Viper
	services config.Services
	logger   eurekabot.SLogger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   name,
	Short: "Question and answer bot for slack",
	Long: `EurekaBot answers questions asked on slack with the best match found in a knowledge base,
welcomes new channel members with a card and logs every answered question to a document store.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if cmd.Name() == "help" {
			return nil
		}

		// A missing .env file is fine, the environment is used as is
		dotEnvErr := godotenv.Load()

		v, services, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		logger = eurekabot.NewDefaultSLogger(v.GetBool(config.DebugKey))
		if dotEnvErr != nil {
			logger.Debugf("No .env file loaded: %v\n", dotEnvErr)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (json, yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&botFilePath, "bot-file", "", "bot file with the services list (default ./EurekaChatBot.bot)")
	rootCmd.PersistentFlags().StringVar(&environment, "env", "", "environment of the endpoint service (development or production)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig layers, from lowest to highest precedence, the defaults, the configuration file, the environment
// and the command-line flags before loading the bot file
func loadConfig(cmd *cobra.Command) (v *viper.Viper, services config.Services, err error) {
	v = config.NewViperWithDefaults()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.BindEnv(config.SlackTokenKey, envPrefix+"_SLACKTOKEN", slackTokenEnv); err != nil {
		return nil, nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err = v.ReadInConfig(); err != nil {
			return nil, nil, errors.Wrapf(err, "error reading configuration file [%s]", configFile)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("bot-file") {
		v.Set(config.BotFilePathKey, botFilePath)
	}
	if flags.Changed("env") {
		v.Set(config.EnvironmentKey, environment)
	}
	if flags.Changed("debug") {
		v.Set(config.DebugKey, debug)
	}

	services, err = config.LoadBotFile(v, v.GetString(config.BotFilePathKey))
	if err != nil {
		return nil, nil, err
	}

	return v, services, nil
}

func newMeter() metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// newKnowledgeBase returns the lazily initialized knowledge base connection
func newKnowledgeBase(v *viper.Viper, meter metric.Meter) *qna.Connection {
	return qna.NewConnection(v, qna.OptionTelemetry(name, meter))
}

// newStoreConnection returns the lazily initialized document store connection with every backend registered
func newStoreConnection(v *viper.Viper, meter metric.Meter) *store.Connection {
	opts := []store.ConnectionOption{
		store.OptionOpener(datastoredb.Scheme, datastoredb.Open),
		store.OptionTelemetry(name, meter),
	}

	for _, scheme := range surrealstore.Schemes {
		opts = append(opts, store.OptionOpener(scheme, surrealstore.Open))
	}

	return store.NewConnection(v, opts...)
}
