package eurekabot

import (
	"context"
	"fmt"
)

// Handler is implemented by the bot logic processing a turn
type Handler interface {
	OnTurn(ctx context.Context, tc *TurnContext) (err error)
}

// HandlerFunc is a function adapter for the Handler interface
type HandlerFunc func(ctx context.Context, tc *TurnContext) (err error)

// OnTurn calls f
func (f HandlerFunc) OnTurn(ctx context.Context, tc *TurnContext) (err error) {
	return f(ctx, tc)
}

// NextFunc continues the middleware pipeline
type NextFunc func(ctx context.Context) (err error)

// Middleware runs around every turn. Implementations do their work and then call next to
// let the rest of the pipeline (and ultimately, the Handler) run
type Middleware interface {
	OnTurn(ctx context.Context, tc *TurnContext, next NextFunc) (err error)
}

// MiddlewareFunc is a function adapter for the Middleware interface
type MiddlewareFunc func(ctx context.Context, tc *TurnContext, next NextFunc) (err error)

// OnTurn calls f
func (f MiddlewareFunc) OnTurn(ctx context.Context, tc *TurnContext, next NextFunc) (err error) {
	return f(ctx, tc, next)
}

// TurnErrorHandler is invoked when a turn fails with an error
type TurnErrorHandler func(ctx context.Context, tc *TurnContext, turnErr error)

// Adapter holds the middleware pipeline and the handler that processes inbound activities
type Adapter struct {
	middlewares []Middleware
	handler     Handler
	onTurnError TurnErrorHandler
	log         SLogger
}

// AdapterOption defines an option for an Adapter
type AdapterOption func(a *Adapter)

// OptionOnTurnError sets the function invoked when a turn fails. It replaces the default
// behavior of logging the error and apologizing to the user
func OptionOnTurnError(onTurnError TurnErrorHandler) func(a *Adapter) {
	return func(a *Adapter) {
		a.onTurnError = onTurnError
	}
}

// NewAdapter returns a new Adapter delivering turns to the handler after running through
// the middlewares added via Use
func NewAdapter(handler Handler, log SLogger, options ...AdapterOption) (a *Adapter) {
	a = new(Adapter)
	a.handler = handler
	a.log = log
	a.middlewares = make([]Middleware, 0)
	a.onTurnError = a.apologize

	for _, opt := range options {
		opt(a)
	}

	return a
}

// Use adds a middleware at the end of the pipeline
func (a *Adapter) Use(m Middleware) *Adapter {
	a.middlewares = append(a.middlewares, m)
	return a
}

// ProcessActivity runs a full turn for an inbound activity. If the turn fails, the turn error handler is
// invoked and the error is returned
func (a *Adapter) ProcessActivity(ctx context.Context, activity *Activity, sender Sender) (err error) {
	tc := NewTurnContext(activity, sender)

	err = a.runPipeline(ctx, tc, 0)
	if err != nil && a.onTurnError != nil {
		a.onTurnError(ctx, tc, err)
	}

	return err
}

// runPipeline runs the middleware at index i with a next function continuing at i+1. Once all
// middlewares have run, the handler is invoked
func (a *Adapter) runPipeline(ctx context.Context, tc *TurnContext, i int) (err error) {
	if i == len(a.middlewares) {
		return a.handler.OnTurn(ctx, tc)
	}

	return a.middlewares[i].OnTurn(ctx, tc, func(ctx context.Context) error {
		return a.runPipeline(ctx, tc, i+1)
	})
}

// apologize logs the turn error and lets the user know something went wrong
func (a *Adapter) apologize(ctx context.Context, tc *TurnContext, turnErr error) {
	a.log.Printf("Exception caught : %v\n", turnErr)

	if _, err := tc.SendText(ctx, fmt.Sprintf("Oops - %s", turnErr.Error())); err != nil {
		a.log.Printf("Unable to send apology for failed turn: %v\n", err)
	}
}
