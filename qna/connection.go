package qna

import (
	"context"
	"sync"

	"github.com/alexandre-normand/eurekabot/config"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
)

// Fields of the qna service descriptor
const (
	knowledgeBaseIDField = "kbId"
	endpointKeyField     = "endpointKey"
	hostnameField        = "hostname"
)

// LookuperFactory creates a Lookuper for a knowledge base endpoint
type LookuperFactory func(endpoint Endpoint, options Options) (l Lookuper, err error)

// Connection is the lazily initialized, process-wide knowledge base client. It is safe for concurrent use
type Connection struct {
	config  *viper.Viper
	factory LookuperFactory
	meter   metric.Meter
	appName string

	mu       sync.Mutex
	lookuper Lookuper
}

// ConnectionOption defines an option for a Connection
type ConnectionOption func(c *Connection)

// OptionLookuperFactory sets the function creating the Lookuper on first use. The default creates an http Client
func OptionLookuperFactory(factory LookuperFactory) func(c *Connection) {
	return func(c *Connection) {
		c.factory = factory
	}
}

// OptionTelemetry decorates the Lookuper with open telemetry metrics recorded with the given meter
func OptionTelemetry(appName string, meter metric.Meter) func(c *Connection) {
	return func(c *Connection) {
		c.appName = appName
		c.meter = meter
	}
}

// NewConnection returns a new Connection reading the services list and query options from v. Nothing
// is created until the connection is first used
func NewConnection(v *viper.Viper, opts ...ConnectionOption) (c *Connection) {
	c = new(Connection)
	c.config = v
	c.factory = func(endpoint Endpoint, options Options) (Lookuper, error) {
		return NewClient(endpoint, options)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EnsureInitialized returns the knowledge base Lookuper, creating it from the first qna service descriptor
// on the first call. A failed initialization isn't kept and the next call tries again
func (c *Connection) EnsureInitialized() (l Lookuper, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lookuper != nil {
		return c.lookuper, nil
	}

	services, err := config.GetServices(c.config)
	if err != nil {
		return nil, err
	}

	sd, err := services.FirstOfType(config.QnAServiceType)
	if err != nil {
		return nil, err
	}

	endpoint := Endpoint{KnowledgeBaseID: sd.Get(knowledgeBaseIDField), EndpointKey: sd.Get(endpointKeyField), Host: sd.Get(hostnameField)}
	options := Options{Top: c.config.GetInt(config.QnATopKey), ScoreThreshold: c.config.GetFloat64(config.QnAScoreThresholdKey)}

	l, err = c.factory(endpoint, options)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating qna client for service [%s]", sd)
	}

	if c.meter != nil {
		l = NewLookuperWithTelemetry(l, c.appName, c.meter)
	}

	c.lookuper = l
	return c.lookuper, nil
}

// GetAnswers ensures the connection is initialized and looks up answers to the question
func (c *Connection) GetAnswers(ctx context.Context, question string) (results []QueryResult, err error) {
	l, err := c.EnsureInitialized()
	if err != nil {
		return nil, err
	}

	return l.GetAnswers(ctx, question)
}
