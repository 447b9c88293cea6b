package eurekabot

import (
	"context"
	"time"

	"github.com/alexandre-normand/eurekabot/store"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

// DocumentStoreProvider is implemented by any value able to return a provisioned document store
// along with the collection to write to (i.e. store.Connection)
type DocumentStoreProvider interface {
	EnsureConfigured(ctx context.Context) (ds store.DocumentStore, link store.CollectionLink, err error)
}

// ConversationLogger is a Middleware persisting a LogEntry for every reply sent in answer to a message.
// Entries are written asynchronously and failures to write them never fail the turn
type ConversationLogger struct {
	stores DocumentStoreProvider
	log    SLogger
	writes conc.WaitGroup
}

// NewConversationLogger returns a new ConversationLogger writing to the document store of the provider
func NewConversationLogger(stores DocumentStoreProvider, log SLogger) (cl *ConversationLogger) {
	cl = new(ConversationLogger)
	cl.stores = stores
	cl.log = log

	return cl
}

// OnTurn implements Middleware. It registers the logging interceptor and continues the pipeline
func (cl *ConversationLogger) OnTurn(ctx context.Context, tc *TurnContext, next NextFunc) (err error) {
	tc.OnSendActivities(SendInterceptorFunc(cl.interceptSend))

	return next(ctx)
}

// interceptSend delivers the activities and then logs each one with text when the turn was started by a message
// with text
func (cl *ConversationLogger) interceptSend(ctx context.Context, tc *TurnContext, activities []*Activity, next SendNext) (sent []*Activity, err error) {
	sent, err = next(ctx)
	if err != nil {
		return sent, err
	}

	inbound := tc.Activity()
	if !inbound.HasText() {
		return sent, nil
	}

	// Writes outlive the turn
	writeCtx := context.WithoutCancel(ctx)
	for _, a := range sent {
		if !a.HasText() {
			continue
		}

		entry := newLogEntry(inbound, a)
		cl.writes.Go(func() {
			cl.write(writeCtx, entry)
		})
	}

	return sent, nil
}

// write ensures the document store is provisioned and persists the entry
func (cl *ConversationLogger) write(ctx context.Context, entry *store.LogEntry) {
	ds, link, err := cl.stores.EnsureConfigured(ctx)
	if err != nil {
		cl.log.Printf("Unable to save log entry [%s]: %v\n", entry.ID, err)
		return
	}

	if err = ds.CreateDocument(ctx, link, entry); err != nil {
		cl.log.Printf("Unable to save log entry [%s] to [%s]: %v\n", entry.ID, link, err)
		return
	}

	cl.log.Debugf("Saved log entry [%s] to [%s]\n", entry.ID, link)
}

// Wait blocks until all pending log writes are done
func (cl *ConversationLogger) Wait() {
	cl.writes.Wait()
}

func newLogEntry(inbound *Activity, reply *Activity) (entry *store.LogEntry) {
	entry = new(store.LogEntry)
	entry.ID = uuid.New().String()
	entry.Question = inbound.Text
	entry.Answer = reply.Text
	entry.UserID = reply.ReplyToID
	entry.ConversationID = reply.Conversation.ID
	entry.Timestamp = time.Now().UTC()

	if reply.Properties.QnAScore != nil {
		score := *reply.Properties.QnAScore
		entry.Score = &score
	}

	return entry
}
