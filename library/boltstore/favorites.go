package boltstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/library"
	"github.com/reusee/mmh3"
	bolt "go.etcd.io/bbolt"
)

// Fixed width so that keys sort by time
const favoriteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// sortableID orders favorites by creation time, the sequence breaks ties
// between favorites of the same photo created at the same instant
func sortableID(ts time.Time, url string, seq uint64) []byte {
	var id bytes.Buffer
	id.Write([]byte(ts.UTC().Format(favoriteTimeLayout)))
	h := mmh3.New32()
	h.Write([]byte(url))
	id.Write(h.Sum(nil))
	id.Write(itob(seq))
	return id.Bytes()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func (store *BoltStore) AddFavorite(ctx context.Context, f library.Favorite) (added *library.Favorite, err error) {
	err = store.update(ctx, "add favorite", func(tx *bolt.Tx, batches *[]events.Batch) error {
		before, err := readFavorites(tx)
		if err != nil {
			return err
		}
		b := tx.Bucket(favoritesBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		f.ID = library.FavoriteID(seq)
		encoded, err := json.Marshal(f)
		if err != nil {
			return err
		}
		key := sortableID(f.Created, f.URL, seq)
		if err := b.Put(key, encoded); err != nil {
			return err
		}
		if err := tx.Bucket(favoriteIDs).Put(itob(seq), key); err != nil {
			return err
		}
		added = &f
		return collectFavoriteChanges(tx, before, batches)
	})
	return
}

func (store *BoltStore) GetFavorite(ctx context.Context, id library.FavoriteID) (found *library.Favorite, err error) {
	err = store.view("get favorite", func(tx *bolt.Tx) error {
		_, f, err := readFavorite(tx, id)
		found = f
		return err
	})
	return
}

func (store *BoltStore) DeleteFavorite(ctx context.Context, id library.FavoriteID) (deleted *library.Favorite, err error) {
	err = store.update(ctx, "delete favorite", func(tx *bolt.Tx, batches *[]events.Batch) error {
		before, err := readFavorites(tx)
		if err != nil {
			return err
		}
		key, f, err := readFavorite(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(favoritesBucket).Delete(key); err != nil {
			return err
		}
		if err := tx.Bucket(favoriteIDs).Delete(itob(uint64(id))); err != nil {
			return err
		}
		deleted = f
		return collectFavoriteChanges(tx, before, batches)
	})
	return
}

// FindFavorites returns all favorites, newest first
func (store *BoltStore) FindFavorites(ctx context.Context) (favorites []library.Favorite, err error) {
	err = store.view("find favorites", func(tx *bolt.Tx) error {
		favorites, err = readFavorites(tx)
		return err
	})
	return
}

func readFavorite(tx *bolt.Tx, id library.FavoriteID) ([]byte, *library.Favorite, error) {
	key := tx.Bucket(favoriteIDs).Get(itob(uint64(id)))
	if key == nil {
		return nil, nil, library.NotFound("favorite", id)
	}
	data := tx.Bucket(favoritesBucket).Get(key)
	if data == nil {
		return nil, nil, library.NotFound("favorite", id)
	}
	var f library.Favorite
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("could not unmarshal favorite: %w", err)
	}
	return append([]byte{}, key...), &f, nil
}

func readFavorites(tx *bolt.Tx) ([]library.Favorite, error) {
	favorites := []library.Favorite{}
	err := forEach(newForwardCursor(tx.Bucket(favoritesBucket).Cursor()).Reverse(), func(k, v []byte) error {
		var f library.Favorite
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("could not unmarshal favorite: %w", err)
		}
		favorites = append(favorites, f)
		return nil
	})
	return favorites, err
}

func favoriteEntries(favorites []library.Favorite) []events.Entry {
	entries := make([]events.Entry, len(favorites))
	for i, f := range favorites {
		entries[i] = events.Entry{ID: f.ID.String(), Value: f}
	}
	return entries
}

func collectFavoriteChanges(tx *bolt.Tx, before []library.Favorite, batches *[]events.Batch) error {
	after, err := readFavorites(tx)
	if err != nil {
		return err
	}
	b := events.Diff(library.FavoritesCollection, favoriteEntries(before), favoriteEntries(after))
	if !b.Empty() {
		*batches = append(*batches, b)
	}
	return nil
}
