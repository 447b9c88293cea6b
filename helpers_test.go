package eurekabot_test

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/alexandre-normand/eurekabot"
	"github.com/alexandre-normand/eurekabot/config"
	"github.com/alexandre-normand/eurekabot/qna"
	"github.com/spf13/viper"
)

const (
	botID          = "B-EUREKA"
	userID         = "U-ALICE"
	conversationID = "C-GENERAL"
)

// staticKnowledgeBase answers every question with the same results and records the questions asked
type staticKnowledgeBase struct {
	results   []qna.QueryResult
	err       error
	mu        sync.Mutex
	questions []string
}

func (kb *staticKnowledgeBase) GetAnswers(ctx context.Context, question string) (results []qna.QueryResult, err error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.questions = append(kb.questions, question)
	return kb.results, kb.err
}

// lockedBuilder is a strings.Builder safe to read while log writes happen on other goroutines
type lockedBuilder struct {
	mu sync.Mutex
	b  strings.Builder
}

func (lb *lockedBuilder) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	return lb.b.Write(p)
}

func (lb *lockedBuilder) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	return lb.b.String()
}

func newTestLogger() (eurekabot.SLogger, *lockedBuilder) {
	var lb lockedBuilder
	return eurekabot.NewSLogger(log.New(&lb, "", 0), true), &lb
}

func newTestConfig() *viper.Viper {
	v := config.NewViperWithDefaults()
	v.Set(config.WelcomeCardTitleKey, "Welcome to EurekaBot")
	v.Set(config.WelcomeCardDescriptionKey, "Ask me anything about the project")
	v.Set(config.WelcomeCardVideoURLKey, "https://example.com/intro.mp4")
	v.Set(config.WelcomeCardLearnMoreURLKey, "https://example.com/learn")

	return v
}

func newMessage(text string) *eurekabot.Activity {
	return &eurekabot.Activity{
		Type:         eurekabot.MessageActivity,
		ID:           "1555000000.000100",
		Text:         text,
		From:         eurekabot.ChannelAccount{ID: userID, Name: "alice"},
		Recipient:    eurekabot.ChannelAccount{ID: botID, Name: "eurekabot"},
		Conversation: eurekabot.ChannelAccount{ID: conversationID},
	}
}

func newMembersAdded(members ...string) *eurekabot.Activity {
	added := make([]eurekabot.ChannelAccount, 0, len(members))
	for _, m := range members {
		added = append(added, eurekabot.ChannelAccount{ID: m})
	}

	return &eurekabot.Activity{
		Type:         eurekabot.ConversationUpdateActivity,
		ID:           "1555000000.000200",
		From:         eurekabot.ChannelAccount{ID: userID},
		Recipient:    eurekabot.ChannelAccount{ID: botID},
		Conversation: eurekabot.ChannelAccount{ID: conversationID},
		MembersAdded: added,
	}
}
