package foyer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hearthside/foyer/core/models"
)

// StoreConstructorFunc defines a function to create a particular store type
type StoreConstructorFunc func(*Config) Store

// Store is the part of foyer that deals with reading and writing records. It must be safe for
// use by concurrently running handlers.
type Store interface {
	Start() error
	Stop() error

	// PutRecord writes the passed in record, overwriting any existing record with the same key
	PutRecord(ctx context.Context, r *models.Record) error

	// SampleRecords reads a bounded page of records, at most limit items. This is a sample of
	// the table, not a full scan.
	SampleRecords(ctx context.Context, limit int) ([]*models.Record, error)

	Health() string
}

// NewStore creates the type of store passed in our config
func NewStore(config *Config) (Store, error) {
	storeFunc, found := registeredStores[strings.ToLower(config.Store)]
	if !found {
		return nil, fmt.Errorf("no such store type: '%s'", config.Store)
	}
	return storeFunc(config), nil
}

// RegisterStore adds a new store, called by individual stores in their init() func
func RegisterStore(storeType string, constructorFunc StoreConstructorFunc) {
	registeredStores[strings.ToLower(storeType)] = constructorFunc
}

var registeredStores = make(map[string]StoreConstructorFunc)
