package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/search"
	bolt "go.etcd.io/bbolt"
)

type photoRecord struct {
	ID    library.PhotoID `json:"id"`
	Title string          `json:"title"`
	URL   string          `json:"url"`
}

// photoKey maps an id to a fixed width key whose byte order is the numeric
// order of the id, negative ids included
func photoKey(id library.PhotoID) []byte {
	return []byte(fmt.Sprintf("%020d", uint64(id)^(1<<63)))
}

func hasPhotos(tx *bolt.Tx, marker library.MarkerID) bool {
	album := tx.Bucket(photosBucket).Bucket([]byte(marker))
	if album == nil {
		return false
	}
	k, _ := album.Cursor().First()
	return k != nil
}

func readAlbum(tx *bolt.Tx, marker library.MarkerID) ([]library.Photo, error) {
	photos := []library.Photo{}
	album := tx.Bucket(photosBucket).Bucket([]byte(marker))
	if album == nil {
		return photos, nil
	}
	err := forEach(newForwardCursor(album.Cursor()), func(k, v []byte) error {
		p, err := decodePhoto(marker, v)
		if err != nil {
			return err
		}
		photos = append(photos, p)
		return nil
	})
	return photos, err
}

func decodePhoto(marker library.MarkerID, data []byte) (library.Photo, error) {
	var r photoRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return library.Photo{}, fmt.Errorf("could not unmarshal photo: %w", err)
	}
	return library.Photo{ID: r.ID, Title: r.Title, URL: r.URL, Marker: marker}, nil
}

func photoEntries(photos []library.Photo) []events.Entry {
	entries := make([]events.Entry, len(photos))
	for i, p := range photos {
		entries[i] = events.Entry{ID: p.ID.String(), Value: p}
	}
	return entries
}

// collectAlbumChanges adds the album batch of a marker and, when the album
// appeared or vanished, the markers batch reflecting the changed HasAlbum
func collectAlbumChanges(tx *bolt.Tx, marker library.MarkerID, before []library.Photo, markersBefore []library.Marker, batches *[]events.Batch) error {
	after, err := readAlbum(tx, marker)
	if err != nil {
		return err
	}
	b := events.Diff(library.PhotosCollection(marker), photoEntries(before), photoEntries(after))
	if b.Empty() {
		return nil
	}
	*batches = append(*batches, b)
	if b.Section != events.SectionNone && markersBefore != nil {
		return collectMarkerChanges(tx, markersBefore, batches)
	}
	return nil
}

func requireMarker(tx *bolt.Tx, marker library.MarkerID) error {
	if tx.Bucket(markersBucket).Get([]byte(marker)) == nil {
		return library.NotFound("marker", marker)
	}
	return nil
}

// deleteAlbum removes the album bucket of a marker and collects the album
// batch, the caller takes care of the markers batch
func deleteAlbum(tx *bolt.Tx, marker library.MarkerID, batches *[]events.Batch) ([]library.Photo, error) {
	before, err := readAlbum(tx, marker)
	if err != nil {
		return nil, err
	}
	if len(before) == 0 {
		return before, nil
	}
	if err := tx.Bucket(photosBucket).DeleteBucket([]byte(marker)); err != nil {
		return nil, err
	}
	return before, collectAlbumChanges(tx, marker, before, nil, batches)
}

func (store *BoltStore) DeletePhotos(ctx context.Context, marker library.MarkerID) (deleted []library.Photo, err error) {
	err = store.update(ctx, "delete photos", func(tx *bolt.Tx, batches *[]events.Batch) error {
		if err := requireMarker(tx, marker); err != nil {
			return err
		}
		markersBefore, err := readMarkers(tx)
		if err != nil {
			return err
		}
		deleted, err = deleteAlbum(tx, marker, batches)
		if err != nil || len(deleted) == 0 {
			return err
		}
		return collectMarkerChanges(tx, markersBefore, batches)
	})
	return
}

// InsertPhotos adds photos for the descriptors to the album of marker. A
// photo already in the album is overwritten. The inserted photos are returned
// by ascending id.
func (store *BoltStore) InsertPhotos(ctx context.Context, marker library.MarkerID, descriptors []search.Descriptor) (inserted []library.Photo, err error) {
	byID := make(map[library.PhotoID]library.Photo, len(descriptors))
	for _, d := range descriptors {
		p := library.NewPhoto(marker, d)
		byID[p.ID] = p
	}
	inserted = make([]library.Photo, 0, len(byID))
	for _, p := range byID {
		inserted = append(inserted, p)
	}
	sort.Slice(inserted, func(i, j int) bool { return inserted[i].ID < inserted[j].ID })

	err = store.update(ctx, "insert photos", func(tx *bolt.Tx, batches *[]events.Batch) error {
		if err := requireMarker(tx, marker); err != nil {
			return err
		}
		markersBefore, err := readMarkers(tx)
		if err != nil {
			return err
		}
		before, err := readAlbum(tx, marker)
		if err != nil {
			return err
		}
		album, err := tx.Bucket(photosBucket).CreateBucketIfNotExists([]byte(marker))
		if err != nil {
			return err
		}
		for _, p := range inserted {
			encoded, err := json.Marshal(photoRecord{ID: p.ID, Title: p.Title, URL: p.URL})
			if err != nil {
				return err
			}
			if err := album.Put(photoKey(p.ID), encoded); err != nil {
				return err
			}
		}
		return collectAlbumChanges(tx, marker, before, markersBefore, batches)
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (store *BoltStore) DeletePhoto(ctx context.Context, marker library.MarkerID, id library.PhotoID) (deleted *library.Photo, err error) {
	err = store.update(ctx, "delete photo", func(tx *bolt.Tx, batches *[]events.Batch) error {
		album := tx.Bucket(photosBucket).Bucket([]byte(marker))
		if album == nil || album.Get(photoKey(id)) == nil {
			return library.NotFound("photo", id)
		}
		p, err := decodePhoto(marker, album.Get(photoKey(id)))
		if err != nil {
			return err
		}
		markersBefore, err := readMarkers(tx)
		if err != nil {
			return err
		}
		before, err := readAlbum(tx, marker)
		if err != nil {
			return err
		}
		if err := album.Delete(photoKey(id)); err != nil {
			return err
		}
		deleted = &p
		return collectAlbumChanges(tx, marker, before, markersBefore, batches)
	})
	return
}

func (store *BoltStore) GetPhoto(ctx context.Context, marker library.MarkerID, id library.PhotoID) (found *library.Photo, err error) {
	err = store.view("get photo", func(tx *bolt.Tx) error {
		album := tx.Bucket(photosBucket).Bucket([]byte(marker))
		if album == nil {
			return library.NotFound("photo", id)
		}
		data := album.Get(photoKey(id))
		if data == nil {
			return library.NotFound("photo", id)
		}
		p, err := decodePhoto(marker, data)
		if err != nil {
			return err
		}
		found = &p
		return nil
	})
	return
}

// FindPhotos returns the album of marker by ascending photo id
func (store *BoltStore) FindPhotos(ctx context.Context, marker library.MarkerID) (photos []library.Photo, err error) {
	err = store.view("find photos", func(tx *bolt.Tx) error {
		if err := requireMarker(tx, marker); err != nil {
			return err
		}
		photos, err = readAlbum(tx, marker)
		return err
	})
	return
}
