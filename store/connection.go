package store

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/alexandre-normand/eurekabot/config"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
)

// Fields of the document store service descriptor
const (
	EndpointField   = "endpoint"
	KeyField        = "key"
	DatabaseField   = "database"
	CollectionField = "collection"
)

// LevelDBScheme is the endpoint scheme of the local LevelDB document store
const LevelDBScheme = "leveldb"

// Opener creates a DocumentStore from its service descriptor
type Opener func(ctx context.Context, sd config.ServiceDescriptor) (ds DocumentStore, err error)

// Connection is the lazily initialized, process-wide document store. The backend is picked by the scheme of the
// service's endpoint. It is safe for concurrent use
type Connection struct {
	config  *viper.Viper
	openers map[string]Opener
	meter   metric.Meter
	appName string

	mu    sync.Mutex
	store DocumentStore
	link  CollectionLink
}

// ConnectionOption defines an option for a Connection
type ConnectionOption func(c *Connection)

// OptionOpener registers the Opener for endpoints with the given scheme
func OptionOpener(scheme string, opener Opener) func(c *Connection) {
	return func(c *Connection) {
		c.openers[scheme] = opener
	}
}

// OptionTelemetry decorates the DocumentStore with open telemetry metrics recorded with the given meter
func OptionTelemetry(appName string, meter metric.Meter) func(c *Connection) {
	return func(c *Connection) {
		c.appName = appName
		c.meter = meter
	}
}

// NewConnection returns a new Connection reading the services list from v. The LevelDB opener is registered by
// default. Nothing is opened until the connection is first used
func NewConnection(v *viper.Viper, opts ...ConnectionOption) (c *Connection) {
	c = new(Connection)
	c.config = v
	c.openers = map[string]Opener{LevelDBScheme: OpenLevelDB}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EnsureConfigured returns the document store and the collection to write to. On the first call, the store is
// opened from the first documentstore service descriptor. On every call, the database is created if absent and
// then, once the database is known to exist, so is the collection
func (c *Connection) EnsureConfigured(ctx context.Context) (ds DocumentStore, link CollectionLink, err error) {
	ds, link, err = c.ensureStore(ctx)
	if err != nil {
		return nil, CollectionLink{}, err
	}

	status, err := ds.EnsureDatabase(ctx, link.Database)
	if err != nil {
		return nil, CollectionLink{}, errors.Wrapf(err, "error creating database [%s]", link.Database)
	}

	if status == Created || status == Existed {
		if _, err = ds.EnsureCollection(ctx, link); err != nil {
			return nil, CollectionLink{}, errors.Wrapf(err, "error creating collection [%s]", link)
		}
	}

	return ds, link, nil
}

// ensureStore opens the document store once. A failed attempt isn't kept and the next call tries again. Callers
// wait behind the lock for at most the open timeout
func (c *Connection) ensureStore(ctx context.Context) (ds DocumentStore, link CollectionLink, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, c.link, nil
	}

	services, err := config.GetServices(c.config)
	if err != nil {
		return nil, CollectionLink{}, err
	}

	sd, err := services.FirstOfType(config.DocumentStoreServiceType)
	if err != nil {
		return nil, CollectionLink{}, err
	}

	endpoint, err := url.Parse(sd.Get(EndpointField))
	if err != nil {
		return nil, CollectionLink{}, errors.Wrapf(err, "invalid endpoint for service [%s]", sd)
	}

	open, ok := c.openers[endpoint.Scheme]
	if !ok {
		return nil, CollectionLink{}, errors.Errorf("no document store registered for scheme [%s] of service [%s]", endpoint.Scheme, sd)
	}

	link = CollectionLink{Database: sd.Get(DatabaseField), Collection: sd.Get(CollectionField)}
	if link.Database == "" || link.Collection == "" {
		return nil, CollectionLink{}, errors.Errorf("service [%s] requires both a database and a collection", sd)
	}

	ds, err = c.open(ctx, open, sd)
	if err != nil {
		return nil, CollectionLink{}, errors.Wrapf(err, "error opening document store for service [%s]", sd)
	}

	if c.meter != nil {
		ds = NewDocumentStoreWithTelemetry(ds, c.appName, c.meter)
	}

	c.store = ds
	c.link = link

	return c.store, c.link, nil
}

// open runs the opener for at most the configured open timeout. The opener keeps the caller's context as
// stores may hold on to it for their lifetime. A store opened after the timeout is closed right away
func (c *Connection) open(ctx context.Context, open Opener, sd config.ServiceDescriptor) (ds DocumentStore, err error) {
	timeout := c.config.GetDuration(config.DocumentStoreOpenTimeoutKey)
	if timeout <= 0 {
		return open(ctx, sd)
	}

	type opened struct {
		ds  DocumentStore
		err error
	}

	result := make(chan opened, 1)
	go func() {
		ds, err := open(ctx, sd)
		result <- opened{ds: ds, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-result:
		return r.ds, r.err
	case <-timer.C:
	case <-ctx.Done():
	}

	go func() {
		if r := <-result; r.err == nil {
			r.ds.Close()
		}
	}()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return nil, errors.Errorf("timed out after %s", timeout)
}

// Close closes the document store if it was opened
func (c *Connection) Close() (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return nil
	}

	err = c.store.Close()
	c.store = nil

	return err
}
