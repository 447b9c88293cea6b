package slackchannel

import (
	"context"

	"github.com/slack-go/slack"
)

// chatDriver is implemented by any value that has the PostMessageContext method. It decouples the channel from
// the slack.Client in order to test the rendering of activities without a slack workspace.
//
// slack.Client implements this interface
type chatDriver interface {
	// PostMessageContext sends a message to a channel. See https://godoc.org/github.com/slack-go/slack#Client.PostMessageContext for more details
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error)
}
