// Package assertactivity provides testing functions to validate an activity sent by the bot
package assertactivity

import (
	"testing"

	"github.com/alexandre-normand/eurekabot"
	"github.com/stretchr/testify/assert"
)

// HasText asserts that the activity's text is the expected text
func HasText(t *testing.T, activity *eurekabot.Activity, text string) bool {
	if assert.NotNil(t, activity) {
		return assert.Equalf(t, text, activity.Text, "Activity text expected to be [%s] but was [%s]", text, activity.Text)
	}
	return false
}

// HasTextContaining asserts that the activity's text contains the expected subString
func HasTextContaining(t *testing.T, activity *eurekabot.Activity, subString string) bool {
	if assert.NotNil(t, activity) {
		return assert.Containsf(t, activity.Text, subString, "Activity expected to have text containing [%s] but its text [%s] didn't", subString, activity.Text)
	}
	return false
}

// HasQnAScore asserts that the activity carries the expected knowledge base score
func HasQnAScore(t *testing.T, activity *eurekabot.Activity, score float64) bool {
	if assert.NotNil(t, activity) && assert.NotNilf(t, activity.Properties.QnAScore, "Activity expected to have a qna score of [%f] but had none", score) {
		return assert.InDelta(t, score, *activity.Properties.QnAScore, 0.000001)
	}
	return false
}

// HasNoQnAScore asserts that the activity carries no knowledge base score
func HasNoQnAScore(t *testing.T, activity *eurekabot.Activity) bool {
	if assert.NotNil(t, activity) {
		return assert.Nilf(t, activity.Properties.QnAScore, "Activity expected to have no qna score")
	}
	return false
}

// IsReplyTo asserts that the activity is a reply to the inbound activity
func IsReplyTo(t *testing.T, activity *eurekabot.Activity, inbound *eurekabot.Activity) bool {
	if assert.NotNil(t, activity) {
		return assert.Equal(t, inbound.ID, activity.ReplyToID) &&
			assert.Equal(t, inbound.Conversation, activity.Conversation) &&
			assert.Equal(t, inbound.From, activity.Recipient)
	}
	return false
}

// HasCard asserts that the activity has exactly one attachment and that it's the expected card
func HasCard(t *testing.T, activity *eurekabot.Activity, card eurekabot.Card) bool {
	if assert.NotNil(t, activity) && assert.Lenf(t, activity.Attachments, 1, "Activity expected to have one card attached") {
		return assert.Equal(t, card, activity.Attachments[0])
	}
	return false
}
