package datastoredb

import (
	"context"
	"net/url"
	"sync"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/alexandre-normand/eurekabot/config"
	"github.com/alexandre-normand/eurekabot/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// Scheme is the endpoint scheme of document stores backed by the Google Cloud Datastore. The endpoint host is the
// gcloud project id (i.e. datastore://my-project)
const Scheme = "datastore"

// Kinds of the marker entities recording provisioned databases and collections
const (
	DatabaseKind   = "EurekaDatabase"
	CollectionKind = "EurekaCollection"
)

const connectivityTestKey = "testConnectivity"

// DatastoreDB implements store.DocumentStore. Databases map to datastore namespaces and collections
// to entity kinds
type DatastoreDB struct {
	client datastorer

	// generation counts successful connections. A failed call only reconnects if no other call
	// reconnected since it started
	mu         sync.Mutex
	generation uint64
}

// marker is the entity recording a provisioned database or collection
type marker struct {
	Created time.Time `datastore:",noindex"`
}

// logEntity is the datastore representation of a store.LogEntry
type logEntity struct {
	Question       string    `datastore:",noindex"`
	Answer         string    `datastore:",noindex"`
	HasScore       bool      `datastore:",noindex"`
	Score          float64   `datastore:",noindex"`
	UserID         string
	ConversationID string
	Timestamp      time.Time
}

// Open is the store.Opener for datastore endpoints. The service key, when set, is the path
// to a json credentials file
func Open(ctx context.Context, sd config.ServiceDescriptor) (ds store.DocumentStore, err error) {
	endpoint, err := url.Parse(sd.Get(store.EndpointField))
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{}
	if credentialsFile := sd.Get(store.KeyField); credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	return New(ctx, endpoint.Host, opts...)
}

// New returns a new instance of DatastoreDB for the gcloud project. At least one option is usually required
// to provide gcloud client credentials
func New(ctx context.Context, gcloudProjectID string, gcloudClientOpts ...option.ClientOption) (dsdb *DatastoreDB, err error) {
	if gcloudProjectID == "" {
		return nil, errors.New("datastore endpoint requires a gcloud project id")
	}

	return newWithDatastorer(ctx, &gcdatastore{gcloudProjectID: gcloudProjectID, gcloudClientOpts: gcloudClientOpts})
}

func newWithDatastorer(ctx context.Context, client datastorer) (dsdb *DatastoreDB, err error) {
	dsdb = &DatastoreDB{client: client}

	if err = dsdb.connect(ctx); err != nil {
		return nil, err
	}

	return dsdb, nil
}

// connect creates the client and validates it with a lightweight call
func (dsdb *DatastoreDB) connect(ctx context.Context) (err error) {
	if err = dsdb.client.connect(ctx); err != nil {
		return err
	}

	if err = dsdb.testDB(ctx); err != nil {
		dsdb.client.Close()
		return err
	}

	return nil
}

// testDB makes a lightweight call to the datastore to validate connectivity and credentials
func (dsdb *DatastoreDB) testDB(ctx context.Context) (err error) {
	var m marker
	err = dsdb.client.Get(ctx, datastore.NameKey(DatabaseKind, connectivityTestKey, nil), &m)

	if err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}

	return nil
}

// withReconnect runs op and, should it fail, reconnects and runs it one more time
func (dsdb *DatastoreDB) withReconnect(ctx context.Context, op func() error) (err error) {
	generation := dsdb.currentGeneration()

	err = op()
	if err == nil {
		return nil
	}

	if rerr := dsdb.reconnect(ctx, generation); rerr != nil {
		return err
	}

	return op()
}

func (dsdb *DatastoreDB) currentGeneration() uint64 {
	dsdb.mu.Lock()
	defer dsdb.mu.Unlock()

	return dsdb.generation
}

// reconnect connects again unless the client was already replaced after the given generation
func (dsdb *DatastoreDB) reconnect(ctx context.Context, generation uint64) (err error) {
	dsdb.mu.Lock()
	defer dsdb.mu.Unlock()

	if dsdb.generation != generation {
		return nil
	}

	if err = dsdb.connect(ctx); err != nil {
		return err
	}

	dsdb.generation++

	return nil
}

// ensureMarker creates the marker entity for k if it doesn't exist
func (dsdb *DatastoreDB) ensureMarker(ctx context.Context, k *datastore.Key) (status store.Status, err error) {
	err = dsdb.withReconnect(ctx, func() error {
		var m marker
		err := dsdb.client.Get(ctx, k, &m)
		if err == nil {
			status = store.Existed
			return nil
		}

		if err != datastore.ErrNoSuchEntity {
			return err
		}

		if _, err = dsdb.client.Put(ctx, k, &marker{Created: time.Now()}); err != nil {
			return err
		}

		status = store.Created
		return nil
	})

	if err != nil {
		return store.Unavailable, err
	}

	return status, nil
}

// EnsureDatabase records the database. Datastore namespaces don't need to be created explicitly
func (dsdb *DatastoreDB) EnsureDatabase(ctx context.Context, database string) (status store.Status, err error) {
	return dsdb.ensureMarker(ctx, datastore.NameKey(DatabaseKind, database, nil))
}

// EnsureCollection records the collection in the database namespace
func (dsdb *DatastoreDB) EnsureCollection(ctx context.Context, link store.CollectionLink) (status store.Status, err error) {
	k := datastore.NameKey(CollectionKind, link.Collection, nil)
	k.Namespace = link.Database

	return dsdb.ensureMarker(ctx, k)
}

// CreateDocument stores the entry as an entity of the collection kind keyed by the entry id
func (dsdb *DatastoreDB) CreateDocument(ctx context.Context, link store.CollectionLink, entry *store.LogEntry) (err error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	k := datastore.NameKey(link.Collection, entry.ID, nil)
	k.Namespace = link.Database

	e := &logEntity{Question: entry.Question, Answer: entry.Answer, UserID: entry.UserID, ConversationID: entry.ConversationID, Timestamp: entry.Timestamp}
	if entry.Score != nil {
		e.HasScore = true
		e.Score = *entry.Score
	}

	return dsdb.withReconnect(ctx, func() error {
		_, err := dsdb.client.Put(ctx, k, e)
		return err
	})
}

// Close closes the underlying datastore client
func (dsdb *DatastoreDB) Close() (err error) {
	return dsdb.client.Close()
}
