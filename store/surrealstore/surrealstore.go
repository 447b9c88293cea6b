// Package surrealstore provides an implementation of github.com/alexandre-normand/eurekabot/store's DocumentStore
// interface backed by SurrealDB. Databases live in a single SurrealDB namespace and collections map to tables.
//
// The documentstore service is configured with a websocket (or http) endpoint. The user comes from the endpoint
// user info (root when missing) and the password from the service key:
//
//	{
//	  "type": "documentstore",
//	  "name": "eurekalog",
//	  "endpoint": "ws://root@localhost:8000",
//	  "key": "root",
//	  "database": "EurekaBot",
//	  "collection": "EurekaLog",
//	  "namespace": "eurekabot"
//	}
package surrealstore

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/alexandre-normand/eurekabot/config"
	"github.com/alexandre-normand/eurekabot/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// Schemes are the endpoint schemes served by SurrealDB
var Schemes = []string{"ws", "wss", "http", "https"}

// Descriptor fields specific to SurrealDB
const (
	NamespaceField   = "namespace"
	DefaultNamespace = "eurekabot"
	defaultUser      = "root"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func init() {
	// WebSocket upgrades fail when HTTP/2 is negotiated
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Config holds the SurrealDB connection settings
type Config struct {
	URL       string
	Namespace string
	Username  string
	Password  string
}

// SurrealStore is a DocumentStore on top of a SurrealDB connection that reconnects on its own
type SurrealStore struct {
	conn      *rews.Connection[*gorillaws.Connection]
	db        *surrealdb.DB
	namespace string

	// statements start with USE which changes the session so they're serialized
	mu sync.Mutex
}

type namespaceInfo struct {
	Databases map[string]any `json:"databases"`
}

type databaseInfo struct {
	Tables map[string]any `json:"tables"`
}

// Open is the store.Opener for SurrealDB endpoints
func Open(ctx context.Context, sd config.ServiceDescriptor) (ds store.DocumentStore, err error) {
	cfg, err := ConfigFromDescriptor(sd)
	if err != nil {
		return nil, err
	}

	return New(ctx, cfg, slog.Default())
}

// ConfigFromDescriptor derives the connection settings from a documentstore service descriptor
func ConfigFromDescriptor(sd config.ServiceDescriptor) (cfg Config, err error) {
	endpoint, err := url.Parse(sd.Get(store.EndpointField))
	if err != nil {
		return cfg, errors.Wrapf(err, "invalid endpoint for service [%s]", sd)
	}

	switch endpoint.Scheme {
	case "ws", "wss":
	case "http":
		endpoint.Scheme = "ws"
	case "https":
		endpoint.Scheme = "wss"
	default:
		return cfg, fmt.Errorf("unsupported scheme [%s] for service [%s]", endpoint.Scheme, sd)
	}

	cfg.Username = defaultUser
	if endpoint.User != nil && endpoint.User.Username() != "" {
		cfg.Username = endpoint.User.Username()
	}
	endpoint.User = nil

	// gorillaws adds the /rpc suffix itself
	endpoint.Path = strings.TrimSuffix(strings.TrimSuffix(endpoint.Path, "/"), "/rpc")
	cfg.URL = endpoint.String()
	cfg.Password = sd.Get(store.KeyField)

	cfg.Namespace = sd.Get(NamespaceField)
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	if err = validateIdentifier(cfg.Namespace); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// New connects and signs in to SurrealDB
func New(ctx context.Context, cfg Config, log *slog.Logger) (ss *SurrealStore, err error) {
	sdkLogger := logger.New(log.Handler())
	codec := surrealcbor.New()

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     cfg.URL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			}), nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = 1 * time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer

	if err = conn.Connect(ctx); err != nil {
		return nil, errors.Wrapf(err, "error connecting to [%s]", cfg.URL)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, errors.Wrap(err, "error creating surrealdb client")
	}

	if _, err = db.SignIn(ctx, surrealdb.Auth{Username: cfg.Username, Password: cfg.Password}); err != nil {
		_ = conn.Close(ctx)
		return nil, errors.Wrapf(err, "error signing in as [%s]", cfg.Username)
	}

	return &SurrealStore{conn: conn, db: db, namespace: cfg.Namespace}, nil
}

// EnsureDatabase defines the namespace and the database if they don't exist
func (ss *SurrealStore) EnsureDatabase(ctx context.Context, database string) (status store.Status, err error) {
	if err = validateIdentifier(database); err != nil {
		return store.Unavailable, err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	results, err := surrealdb.Query[namespaceInfo](ctx, ss.db, fmt.Sprintf("DEFINE NAMESPACE IF NOT EXISTS %s; USE NS %s; INFO FOR NS;", ss.namespace, ss.namespace), nil)
	if err != nil {
		return store.Unavailable, errors.Wrapf(err, "error reading namespace [%s]", ss.namespace)
	}

	if results != nil && len(*results) > 0 {
		if _, ok := (*results)[len(*results)-1].Result.Databases[database]; ok {
			return store.Existed, nil
		}
	}

	if _, err = surrealdb.Query[any](ctx, ss.db, fmt.Sprintf("USE NS %s; DEFINE DATABASE IF NOT EXISTS %s;", ss.namespace, database), nil); err != nil {
		return store.Unavailable, err
	}

	return store.Created, nil
}

// EnsureCollection defines the table if it doesn't exist
func (ss *SurrealStore) EnsureCollection(ctx context.Context, link store.CollectionLink) (status store.Status, err error) {
	if err = validateLink(link); err != nil {
		return store.Unavailable, err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	results, err := surrealdb.Query[databaseInfo](ctx, ss.db, fmt.Sprintf("%s INFO FOR DB;", ss.use(link.Database)), nil)
	if err != nil {
		return store.Unavailable, errors.Wrapf(err, "error reading database [%s]", link.Database)
	}

	if results != nil && len(*results) > 0 {
		if _, ok := (*results)[len(*results)-1].Result.Tables[link.Collection]; ok {
			return store.Existed, nil
		}
	}

	if _, err = surrealdb.Query[any](ctx, ss.db, fmt.Sprintf("%s DEFINE TABLE IF NOT EXISTS %s SCHEMALESS;", ss.use(link.Database), link.Collection), nil); err != nil {
		return store.Unavailable, err
	}

	return store.Created, nil
}

// CreateDocument creates the entry as a record of the collection table with the entry id as its record id
func (ss *SurrealStore) CreateDocument(ctx context.Context, link store.CollectionLink, entry *store.LogEntry) (err error) {
	if err = validateLink(link); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	_, err = surrealdb.Query[any](ctx, ss.db, fmt.Sprintf("%s CREATE type::record($tb, $id) CONTENT $doc;", ss.use(link.Database)), map[string]any{
		"tb":  link.Collection,
		"id":  entry.ID,
		"doc": content(entry),
	})

	return err
}

// Close closes the SurrealDB connection
func (ss *SurrealStore) Close() (err error) {
	return ss.conn.Close(context.Background())
}

func (ss *SurrealStore) use(database string) string {
	return fmt.Sprintf("USE NS %s DB %s;", ss.namespace, database)
}

// content returns the record content of a log entry. The id is left out as it's the record id
func content(entry *store.LogEntry) (doc map[string]any) {
	doc = map[string]any{
		"question":       entry.Question,
		"answer":         entry.Answer,
		"userId":         entry.UserID,
		"conversationId": entry.ConversationID,
		"timestamp":      entry.Timestamp,
	}

	if entry.Score != nil {
		doc["score"] = *entry.Score
	}

	return doc
}

func validateLink(link store.CollectionLink) (err error) {
	if err = validateIdentifier(link.Database); err != nil {
		return err
	}

	return validateIdentifier(link.Collection)
}

// validateIdentifier makes sure names interpolated in statements are plain identifiers
func validateIdentifier(name string) (err error) {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier [%s]: only letters, digits and underscores are allowed", name)
	}

	return nil
}
