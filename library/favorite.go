package library

import (
	"strconv"
	"time"

	"bitbucket.org/kleinnic74/tourist/imagecache"
)

const (
	FavoritesCollection = "favorites"
	favoriteNamespace   = "favorites"
)

// FavoriteID is assigned by the store when a favorite is added
type FavoriteID uint64

func (id FavoriteID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func ParseFavoriteID(s string) (FavoriteID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	return FavoriteID(id), err
}

// Favorite is a copy of a starred photo, independent of the photo's marker
type Favorite struct {
	ID      FavoriteID `json:"id"`
	PhotoID PhotoID    `json:"photoId"`
	Title   string     `json:"title"`
	URL     string     `json:"url"`
	Created time.Time  `json:"created"`
}

func NewFavorite(p Photo, now time.Time) Favorite {
	return Favorite{PhotoID: p.ID, Title: p.Title, URL: p.URL, Created: now}
}

func (f Favorite) ImageKey() imagecache.Key {
	return FavoriteImageKey(f.ID)
}

func FavoriteImageKey(id FavoriteID) imagecache.Key {
	return imagecache.Key{Namespace: favoriteNamespace, Name: id.String()}
}
