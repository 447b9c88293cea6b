package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexandre-normand/eurekabot"
	"github.com/alexandre-normand/eurekabot/config"
	"github.com/alexandre-normand/eurekabot/slackchannel"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// appPasswordField is the endpoint service field holding the slack bot token
const appPasswordField = "appPassword"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to slack and answer questions until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) (err error) {
	token, err := slackToken(v, services, logger)
	if err != nil {
		return err
	}

	meter := newMeter()
	knowledgeBase := newKnowledgeBase(v, meter)
	storeConn := newStoreConnection(v, meter)
	defer func() {
		if cerr := storeConn.Close(); cerr != nil {
			logger.Printf("Error closing document store: %v\n", cerr)
		}
	}()

	conversationLogger := eurekabot.NewConversationLogger(storeConn, logger)
	defer conversationLogger.Wait()

	adapter := eurekabot.NewAdapter(eurekabot.NewConversationHandler(v, knowledgeBase, logger), logger).
		Use(conversationLogger)

	api := slack.New(token,
		slack.OptionDebug(v.GetBool(config.DebugKey)),
		slack.OptionLog(log.New(os.Stdout, "slack: ", log.Lshortfile|log.LstdFlags)))

	channel, err := slackchannel.New(v, api, adapter, logger, slackchannel.OptionTelemetry(name, meter))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("Starting %s %s in [%s]\n", name, Version, v.GetString(config.EnvironmentKey))

	return channel.Run(ctx, api.NewRTM())
}

// slackToken returns the slack token set in the configuration or, when there is none, the app password of the
// endpoint service of the environment
func slackToken(v *viper.Viper, services config.Services, sl eurekabot.SLogger) (token string, err error) {
	if token = v.GetString(config.SlackTokenKey); token != "" {
		return token, nil
	}

	environment := v.GetString(config.EnvironmentKey)
	endpoint, fallback, err := services.Endpoint(environment)
	if err != nil {
		return "", err
	}

	if fallback {
		sl.Printf("Warning: no endpoint found for [%s], using [%s] instead\n", environment, endpoint)
	}

	if token = endpoint.Get(appPasswordField); token == "" {
		return "", fmt.Errorf("no slack token found: set %s or the %s of [%s]", slackTokenEnv, appPasswordField, endpoint)
	}

	return token, nil
}
