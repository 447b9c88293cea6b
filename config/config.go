// Package config provides the configuration keys, defaults and service descriptor lookups for eurekabot
package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// DebugKey enables debug logging, bool value
	DebugKey = "debug"
	// EnvironmentKey selects the endpoint service to use ("development" or "production"), string value
	EnvironmentKey = "environment"
	// BotFilePathKey is the path of the bot file holding the services list, string value
	BotFilePathKey = "botFilePath"
	// SlackTokenKey overrides the slack token found on the endpoint service, string value
	SlackTokenKey = "slackToken"
	// NoAnswerMessageKey is the message sent when the knowledge base has no answer, string value
	NoAnswerMessageKey = "noAnswerMessage"
	// WelcomeCardTitleKey is the title of the welcome card, string value
	WelcomeCardTitleKey = "welcomeCard.title"
	// WelcomeCardDescriptionKey is the body text of the welcome card, string value
	WelcomeCardDescriptionKey = "welcomeCard.description"
	// WelcomeCardVideoURLKey is the url of the video shown on the welcome card, string value
	WelcomeCardVideoURLKey = "welcomeCard.videoUrl"
	// WelcomeCardLearnMoreURLKey is the url the "Learn More" button opens, string value
	WelcomeCardLearnMoreURLKey = "welcomeCard.learnMoreUrl"
	// QnATopKey is the maximum number of answers requested from the knowledge base, int value
	QnATopKey = "qna.top"
	// QnAScoreThresholdKey is the minimum score (0 to 1) of a knowledge base answer to be considered, float value
	QnAScoreThresholdKey = "qna.scoreThreshold"
	// ThreadedRepliesKey makes replies go to a thread of the triggering message, bool value
	ThreadedRepliesKey = "threadedReplies"
	// DedupeCacheSizeKey is the number of inbound event ids remembered to drop redeliveries, int value
	DedupeCacheSizeKey = "dedupeCacheSize"
	// UserInfoCacheSizeKey is the number of slack users kept in the user info cache, int value. 0 disables caching
	UserInfoCacheSizeKey = "userInfoCacheSize"
	// PartitionCountKey is the number of workers processing turns (must be a power of two), int value
	PartitionCountKey = "partitionCount"
	// PartitionQueueSizeKey is the number of turns waiting for a worker before new events block, int value
	PartitionQueueSizeKey = "partitionQueueSize"
	// DocumentStoreOpenTimeoutKey bounds the wait for the document store to open, duration value. 0 waits forever
	DocumentStoreOpenTimeoutKey = "documentStoreOpenTimeout"
	// ServicesKey holds the list of service descriptors. Usually loaded from the bot file
	ServicesKey = "services"
)

const (
	// DevelopmentEnvironment is the default environment
	DevelopmentEnvironment = "development"
	// ProductionEnvironment is the production environment. Its endpoint falls back to the development one
	ProductionEnvironment = "production"
)

var defaults = map[string]interface{}{
	DebugKey:                    false,
	EnvironmentKey:              DevelopmentEnvironment,
	BotFilePathKey:              "./EurekaChatBot.bot",
	NoAnswerMessageKey:          "Sorry, I don't have an answer for that one yet.",
	QnATopKey:                   1,
	QnAScoreThresholdKey:        0.3,
	ThreadedRepliesKey:          false,
	DedupeCacheSizeKey:          5000,
	UserInfoCacheSizeKey:        500,
	PartitionCountKey:           4,
	PartitionQueueSizeKey:       10,
	DocumentStoreOpenTimeoutKey: 30 * time.Second,
}

// NewViperWithDefaults creates a new viper instance with all eurekabot defaults set
func NewViperWithDefaults() (v *viper.Viper) {
	return LayerConfigWithDefaults(viper.New())
}

// LayerConfigWithDefaults layers the eurekabot defaults under the values already set on v
func LayerConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return v
}
