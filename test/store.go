package test

import (
	"context"
	"sync"

	"github.com/hearthside/foyer/core/models"
)

// MockStore is a mocked version of a store which doesn't require a real DynamoDB. Used for
// testing handlers and the server independently.
type MockStore struct {
	mutex   sync.Mutex
	records map[string]*models.Record
	order   []string

	putError    error
	sampleError error
}

// NewMockStore returns a new mock store
func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string]*models.Record)}
}

func (s *MockStore) Start() error   { return nil }
func (s *MockStore) Stop() error    { return nil }
func (s *MockStore) Health() string { return "" }

// PutRecord writes the passed in record, overwriting any existing record with the same key
func (s *MockStore) PutRecord(ctx context.Context, r *models.Record) error {
	if s.putError != nil {
		return s.putError
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := r.DynamoKey.String()
	if _, found := s.records[key]; !found {
		s.order = append(s.order, key)
	}
	s.records[key] = r
	return nil
}

// SampleRecords returns up to limit records in insertion order
func (s *MockStore) SampleRecords(ctx context.Context, limit int) ([]*models.Record, error) {
	if s.sampleError != nil {
		return nil, s.sampleError
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	records := make([]*models.Record, 0, len(s.order))
	for _, key := range s.order {
		if len(records) >= limit {
			break
		}
		records = append(records, s.records[key])
	}
	return records, nil
}

// SetPutError sets the error returned by calls to PutRecord
func (s *MockStore) SetPutError(err error) { s.putError = err }

// SetSampleError sets the error returned by calls to SampleRecords
func (s *MockStore) SetSampleError(err error) { s.sampleError = err }

// Records returns all stored records in insertion order
func (s *MockStore) Records() []*models.Record {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	records := make([]*models.Record, len(s.order))
	for i, key := range s.order {
		records[i] = s.records[key]
	}
	return records
}

// RecordForKey returns the stored record with the passed in key, or nil
func (s *MockStore) RecordForKey(pk, sk string) *models.Record {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.records[models.DynamoKey{PK: pk, SK: sk}.String()]
}

// ClearRecords removes all stored records
func (s *MockStore) ClearRecords() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records = make(map[string]*models.Record)
	s.order = nil
}
