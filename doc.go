/*
Package eurekabot provides the conversation pipeline of a question and answer bot.

An inbound Activity is processed by an Adapter that wraps it in a TurnContext and runs it through
its middlewares before handing it to the Handler. Activities sent during the turn go through the
send interceptors registered on the TurnContext before reaching the channel's Sender.

The bot itself is made of:
  - ConversationHandler: answers messages with the best match found in the knowledge base and
    welcomes new conversation members with a card
  - ConversationLogger: a middleware saving every question and its answer to a document store
  - SLogger: to log debug/info statements

Example code (see cmd/eurekabot for the complete version):

	knowledgeBase := qna.NewConnection(v)
	stores := store.NewConnection(v, store.OptionOpener(datastoredb.Scheme, datastoredb.Open))
	defer stores.Close()

	log := eurekabot.NewDefaultSLogger(v.GetBool(config.DebugKey))
	conversationLogger := eurekabot.NewConversationLogger(stores, log)
	defer conversationLogger.Wait()

	adapter := eurekabot.NewAdapter(eurekabot.NewConversationHandler(v, knowledgeBase, log), log).
		Use(conversationLogger)

	api := slack.New(token)
	channel, err := slackchannel.New(v, api, adapter, log)
	if err != nil {
		return err
	}

	return channel.Run(ctx, api.NewRTM())
*/
package eurekabot
