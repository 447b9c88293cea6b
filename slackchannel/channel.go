// Package slackchannel connects a eurekabot Adapter to slack. Slack events received over RTM become activities
// and the activities sent during a turn are posted back to slack, with cards rendered as Block Kit blocks
package slackchannel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alexandre-normand/eurekabot"
	"github.com/alexandre-normand/eurekabot/config"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
)

// TurnProcessor is implemented by any value able to process a turn for an inbound activity (i.e. eurekabot.Adapter)
type TurnProcessor interface {
	ProcessActivity(ctx context.Context, activity *eurekabot.Activity, sender eurekabot.Sender) (err error)
}

// Channel is the slack channel of the bot
type Channel struct {
	config    *viper.Viper
	driver    chatDriver
	users     userInfoFinder
	processor TurnProcessor
	log       eurekabot.SLogger
	seen      *lru.ARCCache

	mu       sync.RWMutex
	selfID   string
	selfName string
}

// Option defines an option for a Channel
type Option func(c *Channel)

// OptionTelemetry wraps the slack client with open telemetry metrics recorded with the given meter
func OptionTelemetry(appName string, meter metric.Meter) func(c *Channel) {
	return func(c *Channel) {
		c.driver = newChatDriverWithTelemetry(c.driver, appName, meter)
		c.users = newUserInfoFinderWithTelemetry(c.users, appName, meter)
	}
}

// New returns a new slack Channel delivering turns to the processor and posting replies with the slack client
func New(v *viper.Viper, client *slack.Client, processor TurnProcessor, log eurekabot.SLogger, options ...Option) (c *Channel, err error) {
	return newWithDriver(v, client, client, processor, log, options...)
}

func newWithDriver(v *viper.Viper, driver chatDriver, users userInfoFinder, processor TurnProcessor, log eurekabot.SLogger, options ...Option) (c *Channel, err error) {
	seen, err := lru.NewARC(v.GetInt(config.DedupeCacheSizeKey))
	if err != nil {
		return nil, errors.Wrap(err, "error creating event cache")
	}

	if partitionCount := v.GetInt(config.PartitionCountKey); !isPowerOfTwo(partitionCount) {
		return nil, fmt.Errorf("[%s] must be a power of two but was [%d]", config.PartitionCountKey, partitionCount)
	}

	users, err = newCachingUserInfoFinder(v.GetInt(config.UserInfoCacheSizeKey), users, log)
	if err != nil {
		return nil, errors.Wrap(err, "error creating user info cache")
	}

	c = new(Channel)
	c.config = v
	c.driver = driver
	c.users = users
	c.processor = processor
	c.log = log
	c.seen = seen

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Run connects to slack over RTM and processes events until the context is done or the credentials are rejected
func (c *Channel) Run(ctx context.Context, rtm *slack.RTM) (err error) {
	go rtm.ManageConnection()
	defer rtm.Disconnect()

	return c.listen(ctx, rtm.IncomingEvents, rtm.GetInfo)
}

// listen loops over incoming events. Turns of a conversation are processed in the order events are received
// and queued turns are completed before listen returns
func (c *Channel) listen(ctx context.Context, events <-chan slack.RTMEvent, info func() *slack.Info) (err error) {
	router, err := newPartitionRouter(c.config.GetInt(config.PartitionCountKey), c.config.GetInt(config.PartitionQueueSizeKey), c.log)
	if err != nil {
		return err
	}
	defer router.stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Debugf("Context done, stopping to listen to slack events\n")
			return nil

		case msg, ok := <-events:
			if !ok {
				return nil
			}

			switch e := msg.Data.(type) {
			case *slack.ConnectedEvent:
				c.log.Printf("Connected to slack (connection counter: %d)\n", e.ConnectionCount)
				c.cacheSelfIdentity(info())

			case *slack.MessageEvent:
				router.route(e.Channel, func() { c.processMessageEvent(ctx, e) })

			case *slack.MemberJoinedChannelEvent:
				router.route(e.Channel, func() { c.processMemberJoined(ctx, e) })

			case *slack.LatencyReport:
				c.log.Debugf("Current latency: %v\n", e.Value)

			case *slack.RTMError:
				c.log.Printf("Error: %s\n", e.Error())

			case *slack.InvalidAuthEvent:
				return fmt.Errorf("invalid slack credentials")

			default:
				// Ignoring other events
			}
		}
	}
}

// cacheSelfIdentity keeps the bot's id and name to avoid having to look it up for every event
func (c *Channel) cacheSelfIdentity(info *slack.Info) {
	if info == nil || info.User == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selfID = info.User.ID
	c.selfName = info.User.Name

	c.log.Debugf("Caching self id [%s] and self name [%s]\n", c.selfID, c.selfName)
}

func (c *Channel) self() eurekabot.ChannelAccount {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return eurekabot.ChannelAccount{ID: c.selfID, Name: c.selfName}
}

// processMessageEvent turns new user messages into message activities. Acks of our own messages, messages with a
// subtype (edits, deletions, joins and bot messages), messages from the bot itself and duplicates are ignored
func (c *Channel) processMessageEvent(ctx context.Context, e *slack.MessageEvent) {
	self := c.self()

	// reply_to is set by slack when a sent message is acknowledged
	if e.ReplyTo > 0 || e.SubType != "" || e.BotID != "" || e.User == "" || e.User == self.ID {
		c.log.Debugf("Ignoring message event [%s] of subtype [%s] from [%s]\n", e.Timestamp, e.SubType, e.User)
		return
	}

	if c.isDuplicate(e.Channel, e.Timestamp) {
		c.log.Debugf("Ignoring duplicate message event [%s] on [%s]\n", e.Timestamp, e.Channel)
		return
	}

	activity := &eurekabot.Activity{
		Type:         eurekabot.MessageActivity,
		ID:           e.Timestamp,
		Text:         stripSelfMention(e.Text, self.ID),
		From:         c.account(ctx, e.User),
		Recipient:    self,
		Conversation: eurekabot.ChannelAccount{ID: e.Channel},
	}

	threadTS := e.ThreadTimestamp
	if threadTS == "" && c.config.GetBool(config.ThreadedRepliesKey) {
		threadTS = e.Timestamp
	}

	c.process(ctx, activity, threadTS)
}

// processMemberJoined turns a member joining a channel into a conversation update activity. Until the bot's
// own identity is known, joins are dropped as the bot's own join couldn't be told apart from others
func (c *Channel) processMemberJoined(ctx context.Context, e *slack.MemberJoinedChannelEvent) {
	self := c.self()
	if self.ID == "" {
		c.log.Debugf("Ignoring member [%s] joining [%s] before self identity is known\n", e.User, e.Channel)
		return
	}

	member := c.account(ctx, e.User)
	activity := &eurekabot.Activity{
		Type:         eurekabot.ConversationUpdateActivity,
		From:         member,
		Recipient:    self,
		Conversation: eurekabot.ChannelAccount{ID: e.Channel},
		MembersAdded: []eurekabot.ChannelAccount{member},
	}

	c.process(ctx, activity, "")
}

// account returns the channel account of a user with its name when it can be found
func (c *Channel) account(ctx context.Context, userID string) (account eurekabot.ChannelAccount) {
	account.ID = userID

	u, err := c.users.GetUserInfoContext(ctx, userID)
	if err != nil {
		c.log.Debugf("Error getting user info for [%s]: %v\n", userID, err)
		return account
	}

	account.Name = u.Name

	return account
}

func (c *Channel) process(ctx context.Context, activity *eurekabot.Activity, threadTS string) {
	sender := &turnSender{channel: c, threadTS: threadTS}

	if err := c.processor.ProcessActivity(ctx, activity, sender); err != nil {
		c.log.Debugf("Turn for [%s] on [%s] failed: %v\n", activity.ID, activity.Conversation.ID, err)
	}
}

// isDuplicate returns true if the message was already seen and records it otherwise
func (c *Channel) isDuplicate(channelID string, timestamp string) bool {
	key := channelID + "/" + timestamp
	if c.seen.Contains(key) {
		return true
	}

	c.seen.Add(key, true)
	return false
}

// stripSelfMention removes mentions of the bot from the text
func stripSelfMention(text string, selfID string) string {
	if selfID == "" {
		return text
	}

	return strings.TrimSpace(strings.ReplaceAll(text, fmt.Sprintf("<@%s>", selfID), ""))
}

// turnSender is the eurekabot.Sender of a single turn. Replies go to the activity's conversation, in the
// thread when there's one
type turnSender struct {
	channel  *Channel
	threadTS string
}

// SendActivities posts every activity and returns copies of those sent with their ID set to the slack timestamp
func (ts *turnSender) SendActivities(ctx context.Context, activities []*eurekabot.Activity) (sent []*eurekabot.Activity, err error) {
	sent = make([]*eurekabot.Activity, 0, len(activities))

	for _, a := range activities {
		options := []slack.MsgOption{slack.MsgOptionText(fallbackText(a), false), slack.MsgOptionAsUser(true)}

		blocks := make([]slack.Block, 0)
		for _, card := range a.Attachments {
			blocks = append(blocks, renderCard(card)...)
		}
		if len(blocks) > 0 {
			options = append(options, slack.MsgOptionBlocks(blocks...))
		}

		if ts.threadTS != "" {
			options = append(options, slack.MsgOptionTS(ts.threadTS))
		}

		_, timestamp, err := ts.channel.driver.PostMessageContext(ctx, a.Conversation.ID, options...)
		if err != nil {
			return sent, errors.Wrapf(err, "error posting message to [%s]", a.Conversation.ID)
		}

		posted := *a
		posted.ID = timestamp
		sent = append(sent, &posted)
	}

	return sent, nil
}
