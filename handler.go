package eurekabot

import (
	"context"

	"github.com/alexandre-normand/eurekabot/config"
	"github.com/alexandre-normand/eurekabot/qna"
	"github.com/spf13/viper"
)

// ConversationHandler is the bot's Handler. It greets new members with the welcome card and
// answers messages from the knowledge base
type ConversationHandler struct {
	config        *viper.Viper
	knowledgeBase qna.Lookuper
	log           SLogger
}

// NewConversationHandler returns a new ConversationHandler answering questions with the knowledge base
func NewConversationHandler(v *viper.Viper, knowledgeBase qna.Lookuper, log SLogger) (h *ConversationHandler) {
	h = new(ConversationHandler)
	h.config = v
	h.knowledgeBase = knowledgeBase
	h.log = log

	return h
}

// OnTurn implements Handler
func (h *ConversationHandler) OnTurn(ctx context.Context, tc *TurnContext) (err error) {
	activity := tc.Activity()

	switch activity.Type {
	case ConversationUpdateActivity:
		return h.welcome(ctx, tc)
	case MessageActivity:
		return h.answer(ctx, tc)
	default:
		h.log.Debugf("Ignoring activity of type [%s]\n", activity.Type)
		return nil
	}
}

// welcome sends the same welcome reply once for every added member other than the bot itself
func (h *ConversationHandler) welcome(ctx context.Context, tc *TurnContext) (err error) {
	activity := tc.Activity()
	if len(activity.MembersAdded) == 0 {
		return nil
	}

	reply := activity.CreateReply("")
	reply.Attachments = []Card{NewWelcomeCard(h.config)}

	for _, member := range activity.MembersAdded {
		if member.ID == activity.Recipient.ID {
			continue
		}

		if _, err = tc.SendActivity(ctx, reply); err != nil {
			return err
		}
	}

	return nil
}

// answer replies with the top ranked knowledge base answer or the no answer message when there's none
func (h *ConversationHandler) answer(ctx context.Context, tc *TurnContext) (err error) {
	activity := tc.Activity()
	if !activity.HasText() {
		return nil
	}

	results, err := h.knowledgeBase.GetAnswers(ctx, activity.Text)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		h.log.Debugf("No answer found for [%s]\n", activity.Text)
		_, err = tc.SendText(ctx, h.config.GetString(config.NoAnswerMessageKey))
		return err
	}

	top := results[0]
	_, err = tc.SendActivity(ctx, activity.CreateReply(top.Answer).WithQnAScore(top.Score))

	return err
}
