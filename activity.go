package eurekabot

import (
	"strings"
)

// ActivityType identifies the kind of conversational event an Activity carries
type ActivityType string

const (
	// MessageActivity is a regular chat message
	MessageActivity ActivityType = "message"
	// ConversationUpdateActivity signals a change in the conversation membership
	ConversationUpdateActivity ActivityType = "conversationUpdate"
)

// ChannelAccount identifies a participant (user or bot) or a conversation on a channel
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Properties holds metadata attached to an outgoing activity by the handler so that
// interceptors further down the send pipeline can read it
type Properties struct {
	// QnAScore is the relevance score of the knowledge base answer, if the activity is one
	QnAScore *float64 `json:"qna_score,omitempty"`
}

// Activity represents one inbound or outgoing conversational event
type Activity struct {
	Type         ActivityType     `json:"type"`
	ID           string           `json:"id,omitempty"`
	Text         string           `json:"text,omitempty"`
	From         ChannelAccount   `json:"from"`
	Recipient    ChannelAccount   `json:"recipient"`
	Conversation ChannelAccount   `json:"conversation"`
	ReplyToID    string           `json:"replyToId,omitempty"`
	MembersAdded []ChannelAccount `json:"membersAdded,omitempty"`
	Attachments  []Card           `json:"attachments,omitempty"`
	Properties   Properties       `json:"properties"`
}

// CreateReply returns a new message activity addressed back to the sender of a, in the same conversation
func (a *Activity) CreateReply(text string) (reply *Activity) {
	reply = new(Activity)
	reply.Type = MessageActivity
	reply.Text = text
	reply.From = a.Recipient
	reply.Recipient = a.From
	reply.Conversation = a.Conversation
	reply.ReplyToID = a.ID

	return reply
}

// HasText returns true if the activity carries non-blank text
func (a *Activity) HasText() bool {
	return strings.TrimSpace(a.Text) != ""
}

// WithQnAScore sets the knowledge base score on the activity properties and returns the activity
func (a *Activity) WithQnAScore(score float64) *Activity {
	a.Properties.QnAScore = &score
	return a
}
