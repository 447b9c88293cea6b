package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/alexandre-normand/eurekabot/config"
	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const collectionMarkerPrefix = "_collections/"

// LevelDB is a DocumentStore keeping each database as a leveldb directory under a root path. Collections are
// key prefixes and documents are json values
type LevelDB struct {
	root string

	mu        sync.Mutex
	databases map[string]*leveldb.DB
}

// OpenLevelDB is the Opener for leveldb endpoints such as leveldb://~/.eurekabot
func OpenLevelDB(ctx context.Context, sd config.ServiceDescriptor) (ds DocumentStore, err error) {
	endpoint, err := url.Parse(sd.Get(EndpointField))
	if err != nil {
		return nil, err
	}

	return NewLevelDB(endpoint.Host + endpoint.Path)
}

// NewLevelDB returns a LevelDB rooted at storagePath. Databases are only opened once ensured
func NewLevelDB(storagePath string) (ldb *LevelDB, err error) {
	// Expand '~' as the full home directory path if appropriate
	root, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	if root == "" {
		return nil, fmt.Errorf("leveldb storage path can't be empty")
	}

	return &LevelDB{root: root, databases: make(map[string]*leveldb.DB)}, nil
}

// EnsureDatabase opens the leveldb database, creating it if it doesn't exist
func (ldb *LevelDB) EnsureDatabase(ctx context.Context, database string) (status Status, err error) {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	if _, ok := ldb.databases[database]; ok {
		return Existed, nil
	}

	fullPath := filepath.Join(ldb.root, database)
	status = Created
	if _, err := os.Stat(fullPath); err == nil {
		status = Existed
	}

	db, err := leveldb.OpenFile(fullPath, nil)
	if _, ok := err.(*leveldberrors.ErrCorrupted); ok {
		return Unavailable, errors.Wrap(err, fmt.Sprintf("leveldb corrupted. Consider deleting [%s] and restarting if you don't mind losing data", fullPath))
	} else if err != nil {
		return Unavailable, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	ldb.databases[database] = db

	return status, nil
}

// EnsureCollection records the collection in its database
func (ldb *LevelDB) EnsureCollection(ctx context.Context, link CollectionLink) (status Status, err error) {
	db, err := ldb.database(link.Database)
	if err != nil {
		return Unavailable, err
	}

	marker := []byte(collectionMarkerPrefix + link.Collection)
	exists, err := db.Has(marker, nil)
	if err != nil {
		return Unavailable, err
	}

	if exists {
		return Existed, nil
	}

	if err = db.Put(marker, []byte(link.Collection), nil); err != nil {
		return Unavailable, err
	}

	return Created, nil
}

// CreateDocument stores the entry as json under {collection}/{id}. An id is generated when the entry has none
func (ldb *LevelDB) CreateDocument(ctx context.Context, link CollectionLink, entry *LogEntry) (err error) {
	db, err := ldb.database(link.Database)
	if err != nil {
		return err
	}

	exists, err := db.Has([]byte(collectionMarkerPrefix+link.Collection), nil)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("collection [%s] doesn't exist", link)
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return db.Put([]byte(documentKey(link.Collection, entry.ID)), value, nil)
}

// Scan returns every document of a collection keyed by id
func (ldb *LevelDB) Scan(link CollectionLink) (entries map[string]LogEntry, err error) {
	db, err := ldb.database(link.Database)
	if err != nil {
		return nil, err
	}

	prefix := documentKey(link.Collection, "")
	entries = map[string]LogEntry{}
	iter := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		var entry LogEntry
		if err = json.Unmarshal(iter.Value(), &entry); err != nil {
			iter.Release()
			return nil, errors.Wrapf(err, "invalid document at key [%s]", iter.Key())
		}

		entries[string(iter.Key()[len(prefix):])] = entry
	}

	iter.Release()
	err = iter.Error()

	return entries, err
}

// Close closes all opened databases
func (ldb *LevelDB) Close() (err error) {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	for name, db := range ldb.databases {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "error closing database [%s]", name)
		}
		delete(ldb.databases, name)
	}

	return err
}

func (ldb *LevelDB) database(name string) (db *leveldb.DB, err error) {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	db, ok := ldb.databases[name]
	if !ok {
		return nil, fmt.Errorf("database [%s] doesn't exist", name)
	}

	return db, nil
}

func documentKey(collection string, id string) string {
	return collection + "/" + id
}
