// Package boltstore is the persistent store of markers, albums and favorites
// using BoltDB
package boltstore

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/logging"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const DefaultName = "tourist.db"

var (
	markersBucket   = []byte("markers")
	photosBucket    = []byte("photos")
	favoritesBucket = []byte("favorites")
	favoriteIDs     = []byte("favoriteids")
)

// BoltStore stores markers, albums and favorites in BoltDB and publishes
// the change batch of each committed transaction
type BoltStore struct {
	db        *bolt.DB
	publisher events.Publisher
}

// Open opens or creates the database file name in basedir
func Open(basedir string, name string) (*bolt.DB, error) {
	return bolt.Open(filepath.Join(basedir, name), 0600, &bolt.Options{Timeout: 2 * time.Second})
}

// NewBoltStore creates the needed buckets in db. A nil publisher drops all
// change batches.
func NewBoltStore(db *bolt.DB, publisher events.Publisher) (*BoltStore, error) {
	if publisher == nil {
		publisher = events.PublisherFunc(func(events.Batch) {})
	}
	err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{markersBucket, photosBucket, favoritesBucket, favoriteIDs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &library.PersistenceError{Op: "init", Err: err}
	}
	return &BoltStore{db: db, publisher: publisher}, nil
}

func (store *BoltStore) Close() error {
	return store.db.Close()
}

// update runs f in a write transaction and publishes the batches f collected
// once the transaction is committed
func (store *BoltStore) update(ctx context.Context, op string, f func(tx *bolt.Tx, batches *[]events.Batch) error) error {
	var batches []events.Batch
	err := store.db.Update(func(tx *bolt.Tx) error {
		batches = batches[:0]
		return f(tx, &batches)
	})
	if err != nil {
		logging.From(ctx).Info("Transaction aborted", zap.String("op", op), zap.Error(err))
		return wrap(op, err)
	}
	for _, b := range batches {
		store.publisher.Publish(b)
	}
	return nil
}

func (store *BoltStore) view(op string, f func(tx *bolt.Tx) error) error {
	return wrap(op, store.db.View(f))
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, library.ErrNotFound) {
		return err
	}
	return &library.PersistenceError{Op: op, Err: err}
}
