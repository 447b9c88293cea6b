package eurekabot

import (
	"github.com/alexandre-normand/eurekabot/config"
	"github.com/spf13/viper"
)

// CardKind identifies how a card should be rendered
type CardKind string

const (
	// VideoCardKind is a card showing a video along with a title, text and buttons
	VideoCardKind CardKind = "video"
)

// OpenURLAction is the type of a CardAction opening its value as a url
const OpenURLAction = "openUrl"

// CardAction is a button on a card
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Card is a renderable rich attachment. Channels decide how to render it
type Card struct {
	Kind    CardKind     `json:"kind"`
	Title   string       `json:"title,omitempty"`
	Text    string       `json:"text,omitempty"`
	Media   []string     `json:"media,omitempty"`
	Buttons []CardAction `json:"buttons,omitempty"`
}

const learnMoreTitle = "Learn More"

// NewWelcomeCard builds the welcome card shown to new members from the welcomeCard configuration.
// Missing values are left empty
func NewWelcomeCard(v *viper.Viper) (card Card) {
	return Card{
		Kind:  VideoCardKind,
		Title: v.GetString(config.WelcomeCardTitleKey),
		Text:  v.GetString(config.WelcomeCardDescriptionKey),
		Media: []string{v.GetString(config.WelcomeCardVideoURLKey)},
		Buttons: []CardAction{
			{Type: OpenURLAction, Title: learnMoreTitle, Value: v.GetString(config.WelcomeCardLearnMoreURLKey)},
		},
	}
}
