package eurekabot

import (
	"context"
)

// Sender is implemented by any value that has the SendActivities method. It is the terminal
// step of the send pipeline and is usually provided by a channel (i.e. slack). It returns the
// activities actually delivered
type Sender interface {
	SendActivities(ctx context.Context, activities []*Activity) (sent []*Activity, err error)
}

// SenderFunc is a function adapter for the Sender interface
type SenderFunc func(ctx context.Context, activities []*Activity) (sent []*Activity, err error)

// SendActivities calls f
func (f SenderFunc) SendActivities(ctx context.Context, activities []*Activity) (sent []*Activity, err error) {
	return f(ctx, activities)
}

// SendNext continues the send pipeline with the next interceptor (or the terminal Sender)
type SendNext func(ctx context.Context) (sent []*Activity, err error)

// SendInterceptor wraps the delivery of outgoing activities. An interceptor normally calls next and returns
// what it returns. Returning without calling next suppresses the delivery
type SendInterceptor interface {
	InterceptSend(ctx context.Context, tc *TurnContext, activities []*Activity, next SendNext) (sent []*Activity, err error)
}

// SendInterceptorFunc is a function adapter for the SendInterceptor interface
type SendInterceptorFunc func(ctx context.Context, tc *TurnContext, activities []*Activity, next SendNext) (sent []*Activity, err error)

// InterceptSend calls f
func (f SendInterceptorFunc) InterceptSend(ctx context.Context, tc *TurnContext, activities []*Activity, next SendNext) (sent []*Activity, err error) {
	return f(ctx, tc, activities, next)
}

// TurnContext holds the state of a single turn: the inbound activity, the channel sender and the
// send interceptors registered while processing the turn
type TurnContext struct {
	activity     *Activity
	sender       Sender
	interceptors []SendInterceptor
}

// NewTurnContext returns a new TurnContext for an inbound activity delivered by a channel's sender
func NewTurnContext(activity *Activity, sender Sender) (tc *TurnContext) {
	tc = new(TurnContext)
	tc.activity = activity
	tc.sender = sender
	tc.interceptors = make([]SendInterceptor, 0)

	return tc
}

// Activity returns the inbound activity of the turn
func (tc *TurnContext) Activity() *Activity {
	return tc.activity
}

// OnSendActivities registers a send interceptor. Interceptors run in registration order
// for every subsequent send of the turn
func (tc *TurnContext) OnSendActivities(interceptor SendInterceptor) {
	tc.interceptors = append(tc.interceptors, interceptor)
}

// SendActivity sends a single activity through the send pipeline
func (tc *TurnContext) SendActivity(ctx context.Context, activity *Activity) (sent []*Activity, err error) {
	return tc.SendActivities(ctx, []*Activity{activity})
}

// SendText sends a simple text reply to the inbound activity
func (tc *TurnContext) SendText(ctx context.Context, text string) (sent []*Activity, err error) {
	return tc.SendActivity(ctx, tc.activity.CreateReply(text))
}

// SendActivities sends activities through the registered interceptors, in order, and
// finally the sender. Each interceptor runs once per call
func (tc *TurnContext) SendActivities(ctx context.Context, activities []*Activity) (sent []*Activity, err error) {
	if len(activities) == 0 {
		return []*Activity{}, nil
	}

	// Snapshot the interceptors so registrations made during this send only apply to later sends
	interceptors := make([]SendInterceptor, len(tc.interceptors))
	copy(interceptors, tc.interceptors)

	return tc.sendThrough(ctx, interceptors, activities)
}

// sendThrough runs the first interceptor with a continuation over the remaining ones
func (tc *TurnContext) sendThrough(ctx context.Context, interceptors []SendInterceptor, activities []*Activity) (sent []*Activity, err error) {
	if len(interceptors) == 0 {
		return tc.sender.SendActivities(ctx, activities)
	}

	next := func(ctx context.Context) ([]*Activity, error) {
		return tc.sendThrough(ctx, interceptors[1:], activities)
	}

	return interceptors[0].InterceptSend(ctx, tc, activities, next)
}
