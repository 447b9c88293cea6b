package datastoredb

import (
	"context"
	"io"
	"sync"

	"cloud.google.com/go/datastore"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// gcdatastore wraps an actual google cloud datastore Client for real/production datastore interaction.
// The client is only replaced or closed once no call is using it
type gcdatastore struct {
	mu               sync.RWMutex
	client           *datastore.Client
	gcloudProjectID  string
	gcloudClientOpts []option.ClientOption
}

var errNotConnected = errors.New("datastore client not connected")

// connecter is implemented by any value that has a connect method
type connecter interface {
	connect(ctx context.Context) (err error)
}

// connect creates a new client instance from the initial gcloud project id and client options.
// Since the credentials file can be replaced during the course of a process, a reconnection
// reads it again
func (ds *gcdatastore) connect(ctx context.Context) (err error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.client != nil {
		ds.client.Close()
	}

	ds.client, err = datastore.NewClient(ctx, ds.gcloudProjectID, ds.gcloudClientOpts...)
	return err
}

// datastorer is implemented by any value that implements all of its methods. It is meant
// to allow easier testing decoupled from an actual datastore to interact with and
// the methods defined are methods implemented by the datastore.Client that this package
// uses
type datastorer interface {
	connecter
	io.Closer
	Get(c context.Context, k *datastore.Key, dest interface{}) (err error)
	Put(c context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error)
}

// Get loads the entity stored for key into dst. See https://godoc.org/cloud.google.com/go/datastore#Client.Get
func (ds *gcdatastore) Get(c context.Context, k *datastore.Key, dest interface{}) (err error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if ds.client == nil {
		return errNotConnected
	}

	return ds.client.Get(c, k, dest)
}

// Put saves the entity src into the datastore with the given key. See https://godoc.org/cloud.google.com/go/datastore#Client.Put
func (ds *gcdatastore) Put(c context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if ds.client == nil {
		return nil, errNotConnected
	}

	return ds.client.Put(c, k, v)
}

// Close closes the client if it was connected
func (ds *gcdatastore) Close() (err error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.client == nil {
		return nil
	}

	err = ds.client.Close()
	ds.client = nil

	return err
}
