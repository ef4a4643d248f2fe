package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/library"
	bolt "go.etcd.io/bbolt"
)

type markerRecord struct {
	ID        library.MarkerID `json:"id"`
	Latitude  float64          `json:"lat"`
	Longitude float64          `json:"lon"`
	Created   time.Time        `json:"created"`
}

func (store *BoltStore) CreateMarker(ctx context.Context, m library.Marker) error {
	encoded, err := json.Marshal(markerRecord{ID: m.ID, Latitude: m.Latitude, Longitude: m.Longitude, Created: m.Created})
	if err != nil {
		return err
	}
	return store.update(ctx, "create marker", func(tx *bolt.Tx, batches *[]events.Batch) error {
		before, err := readMarkers(tx)
		if err != nil {
			return err
		}
		b := tx.Bucket(markersBucket)
		if b.Get([]byte(m.ID)) != nil {
			return fmt.Errorf("marker %s already exists", m.ID)
		}
		if err := b.Put([]byte(m.ID), encoded); err != nil {
			return err
		}
		return collectMarkerChanges(tx, before, batches)
	})
}

func (store *BoltStore) GetMarker(ctx context.Context, id library.MarkerID) (found *library.Marker, err error) {
	err = store.view("get marker", func(tx *bolt.Tx) error {
		found, err = readMarker(tx, id)
		return err
	})
	return
}

func (store *BoltStore) DeleteMarker(ctx context.Context, id library.MarkerID) (deleted []library.Photo, err error) {
	err = store.update(ctx, "delete marker", func(tx *bolt.Tx, batches *[]events.Batch) error {
		before, err := readMarkers(tx)
		if err != nil {
			return err
		}
		if tx.Bucket(markersBucket).Get([]byte(id)) == nil {
			return library.NotFound("marker", id)
		}
		deleted, err = deleteAlbum(tx, id, batches)
		if err != nil {
			return err
		}
		if err := tx.Bucket(markersBucket).Delete([]byte(id)); err != nil {
			return err
		}
		return collectMarkerChanges(tx, before, batches)
	})
	return
}

// FindAllMarkers returns all markers in creation order
func (store *BoltStore) FindAllMarkers(ctx context.Context) (markers []library.Marker, err error) {
	err = store.view("find markers", func(tx *bolt.Tx) error {
		markers, err = readMarkers(tx)
		return err
	})
	return
}

func readMarker(tx *bolt.Tx, id library.MarkerID) (*library.Marker, error) {
	data := tx.Bucket(markersBucket).Get([]byte(id))
	if data == nil {
		return nil, library.NotFound("marker", id)
	}
	m, err := decodeMarker(tx, data)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeMarker(tx *bolt.Tx, data []byte) (library.Marker, error) {
	var r markerRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return library.Marker{}, fmt.Errorf("could not unmarshal marker: %w", err)
	}
	return library.Marker{
		ID:        r.ID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Created:   r.Created,
		HasAlbum:  hasPhotos(tx, r.ID),
	}, nil
}

func readMarkers(tx *bolt.Tx) ([]library.Marker, error) {
	markers := []library.Marker{}
	err := forEach(newForwardCursor(tx.Bucket(markersBucket).Cursor()), func(k, v []byte) error {
		m, err := decodeMarker(tx, v)
		if err != nil {
			return err
		}
		markers = append(markers, m)
		return nil
	})
	sort.SliceStable(markers, func(i, j int) bool {
		if markers[i].Created.Equal(markers[j].Created) {
			return markers[i].ID < markers[j].ID
		}
		return markers[i].Created.Before(markers[j].Created)
	})
	return markers, err
}

func markerEntries(markers []library.Marker) []events.Entry {
	entries := make([]events.Entry, len(markers))
	for i, m := range markers {
		entries[i] = events.Entry{ID: string(m.ID), Value: m}
	}
	return entries
}

// collectMarkerChanges adds the markers batch describing the difference
// between before and the current state of tx
func collectMarkerChanges(tx *bolt.Tx, before []library.Marker, batches *[]events.Batch) error {
	after, err := readMarkers(tx)
	if err != nil {
		return err
	}
	b := events.Diff(library.MarkersCollection, markerEntries(before), markerEntries(after))
	if !b.Empty() {
		*batches = append(*batches, b)
	}
	return nil
}
