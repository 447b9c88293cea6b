package slackchannel

import (
	"fmt"

	"github.com/alexandre-normand/eurekabot"
	"github.com/slack-go/slack"
)

const cardActionsBlockID = "card_actions"

// renderCard renders a card as Block Kit blocks: a header with the title, a section with the text, one section
// per media link and an actions block with url buttons
func renderCard(card eurekabot.Card) (blocks []slack.Block) {
	blocks = make([]slack.Block, 0)

	if card.Title != "" {
		blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, card.Title, false, false)))
	}

	if card.Text != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, card.Text, false, false), nil, nil))
	}

	for _, m := range card.Media {
		if m == "" {
			continue
		}

		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf(":movie_camera: <%s|Watch the video>", m), false, false), nil, nil))
	}

	buttons := make([]slack.BlockElement, 0)
	for i, b := range card.Buttons {
		if b.Type != eurekabot.OpenURLAction || b.Value == "" {
			continue
		}

		button := slack.NewButtonBlockElement(fmt.Sprintf("%s_%d", cardActionsBlockID, i), b.Value, slack.NewTextBlockObject(slack.PlainTextType, b.Title, false, false))
		button.URL = b.Value
		buttons = append(buttons, button)
	}

	if len(buttons) > 0 {
		blocks = append(blocks, slack.NewActionBlock(cardActionsBlockID, buttons...))
	}

	return blocks
}

// fallbackText returns the text of an activity or, for a card, its title to show in notifications
func fallbackText(activity *eurekabot.Activity) string {
	if activity.Text != "" {
		return activity.Text
	}

	for _, c := range activity.Attachments {
		if c.Title != "" {
			return c.Title
		}
	}

	return ""
}
