package eurekabot_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexandre-normand/eurekabot"
	"github.com/alexandre-normand/eurekabot/config"
	"github.com/alexandre-normand/eurekabot/qna"
	"github.com/alexandre-normand/eurekabot/test/assertactivity"
	"github.com/alexandre-normand/eurekabot/test/capture"
	"github.com/stretchr/testify/assert"
)

func runHandler(t *testing.T, kb *staticKnowledgeBase, activity *eurekabot.Activity) (*capture.SenderCaptor, error) {
	log, _ := newTestLogger()
	h := eurekabot.NewConversationHandler(newTestConfig(), kb, log)
	sender := capture.NewSender()

	err := h.OnTurn(context.Background(), eurekabot.NewTurnContext(activity, sender))

	return sender, err
}

func TestAnswerWithTopResult(t *testing.T) {
	kb := &staticKnowledgeBase{results: []qna.QueryResult{{Answer: "A sample bot.", Score: 0.92}, {Answer: "Some other bot.", Score: 0.5}}}
	inbound := newMessage("What is EurekaBot?")

	sender, err := runHandler(t, kb, inbound)

	assert.Nil(t, err)
	assert.Equal(t, []string{"What is EurekaBot?"}, kb.questions)
	if assert.Len(t, sender.SentActivities, 1) {
		reply := sender.SentActivities[0]
		assertactivity.HasText(t, reply, "A sample bot.")
		assertactivity.HasQnAScore(t, reply, 0.92)
		assertactivity.IsReplyTo(t, reply, inbound)
	}
}

func TestAnswerWithTiedResultsTakesFirst(t *testing.T) {
	kb := &staticKnowledgeBase{results: []qna.QueryResult{{Answer: "First", Score: 0.8}, {Answer: "Second", Score: 0.8}}}

	sender, err := runHandler(t, kb, newMessage("Which one?"))

	assert.Nil(t, err)
	assert.Equal(t, []string{"First"}, sender.Texts())
}

func TestAnswerWithNoResults(t *testing.T) {
	kb := &staticKnowledgeBase{results: []qna.QueryResult{}}

	sender, err := runHandler(t, kb, newMessage("asdkjasd"))

	assert.Nil(t, err)
	if assert.Len(t, sender.SentActivities, 1) {
		reply := sender.SentActivities[0]
		assertactivity.HasText(t, reply, "Sorry, I don't have an answer for that one yet.")
		assertactivity.HasNoQnAScore(t, reply)
	}
}

func TestAnswerWithConfiguredNoAnswerMessage(t *testing.T) {
	log, _ := newTestLogger()
	v := newTestConfig()
	v.Set(config.NoAnswerMessageKey, "No clue, sorry!")
	h := eurekabot.NewConversationHandler(v, &staticKnowledgeBase{}, log)
	sender := capture.NewSender()

	err := h.OnTurn(context.Background(), eurekabot.NewTurnContext(newMessage("asdkjasd"), sender))

	assert.Nil(t, err)
	assert.Equal(t, []string{"No clue, sorry!"}, sender.Texts())
}

func TestEmptyMessageIsIgnored(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		kb := &staticKnowledgeBase{results: []qna.QueryResult{{Answer: "A sample bot.", Score: 0.92}}}

		sender, err := runHandler(t, kb, newMessage(text))

		assert.Nil(t, err)
		assert.Empty(t, sender.SentActivities)
		assert.Empty(t, kb.questions)
	}
}

func TestLookupErrorPropagates(t *testing.T) {
	kb := &staticKnowledgeBase{err: fmt.Errorf("qna request failed with status [503]")}

	sender, err := runHandler(t, kb, newMessage("What is EurekaBot?"))

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "503")
	}
	assert.Empty(t, sender.SentActivities)
}

func TestWelcomeSkipsBotItself(t *testing.T) {
	sender, err := runHandler(t, &staticKnowledgeBase{}, newMembersAdded(botID, userID))

	assert.Nil(t, err)
	if assert.Len(t, sender.SentActivities, 1) {
		assertactivity.HasCard(t, sender.SentActivities[0], eurekabot.NewWelcomeCard(newTestConfig()))
	}
}

func TestWelcomeOncePerAddedMember(t *testing.T) {
	sender, err := runHandler(t, &staticKnowledgeBase{}, newMembersAdded(userID, "U-BOB", "U-CAROL"))

	assert.Nil(t, err)
	assert.Equal(t, 3, sender.Calls())
	if assert.Len(t, sender.SentActivities, 3) {
		// Every member gets the same reply
		assert.Same(t, sender.SentActivities[0], sender.SentActivities[1])
		assert.Same(t, sender.SentActivities[1], sender.SentActivities[2])
	}
}

func TestWelcomeWithOnlyTheBotAdded(t *testing.T) {
	sender, err := runHandler(t, &staticKnowledgeBase{}, newMembersAdded(botID))

	assert.Nil(t, err)
	assert.Empty(t, sender.SentActivities)
}

func TestConversationUpdateWithoutMembers(t *testing.T) {
	sender, err := runHandler(t, &staticKnowledgeBase{}, newMembersAdded())

	assert.Nil(t, err)
	assert.Empty(t, sender.SentActivities)
}

func TestUnknownActivityTypeIsIgnored(t *testing.T) {
	activity := newMessage("typing...")
	activity.Type = eurekabot.ActivityType("typing")

	sender, err := runHandler(t, &staticKnowledgeBase{}, activity)

	assert.Nil(t, err)
	assert.Empty(t, sender.SentActivities)
}
