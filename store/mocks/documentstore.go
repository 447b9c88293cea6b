// Package mocks contains a mock of the store package interfaces
package mocks

import (
	"context"

	"github.com/alexandre-normand/eurekabot/store"
	"github.com/stretchr/testify/mock"
)

// DocumentStore holds a mock implementation of store.DocumentStore
type DocumentStore struct {
	mock.Mock
}

// EnsureDatabase mocks an implementation of EnsureDatabase
func (ms *DocumentStore) EnsureDatabase(ctx context.Context, database string) (status store.Status, err error) {
	args := ms.Called(ctx, database)

	return args.Get(0).(store.Status), args.Error(1)
}

// EnsureCollection mocks an implementation of EnsureCollection
func (ms *DocumentStore) EnsureCollection(ctx context.Context, link store.CollectionLink) (status store.Status, err error) {
	args := ms.Called(ctx, link)

	return args.Get(0).(store.Status), args.Error(1)
}

// CreateDocument mocks an implementation of CreateDocument
func (ms *DocumentStore) CreateDocument(ctx context.Context, link store.CollectionLink, entry *store.LogEntry) (err error) {
	args := ms.Called(ctx, link, entry)

	return args.Error(0)
}

// Close mocks an implementation of Close
func (ms *DocumentStore) Close() (err error) {
	args := ms.Called()

	return args.Error(0)
}
