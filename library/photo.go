package library

import (
	"strconv"

	"bitbucket.org/kleinnic74/tourist/imagecache"
	"bitbucket.org/kleinnic74/tourist/search"
)

// PhotoID is the identity of a photo at the remote search service
type PhotoID int64

func (id PhotoID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParsePhotoID(s string) (PhotoID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	return PhotoID(id), err
}

// Photo is one entry of a marker's album. Its identity in the store is the
// pair (Marker, ID).
type Photo struct {
	ID     PhotoID  `json:"id"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Marker MarkerID `json:"marker"`
}

func NewPhoto(marker MarkerID, d search.Descriptor) Photo {
	return Photo{ID: PhotoID(d.ID), Title: d.Title, URL: d.URL, Marker: marker}
}

func (p Photo) ImageKey() imagecache.Key {
	return PhotoImageKey(p.Marker, p.ID)
}

// PhotosCollection names the change collection of a marker's album
func PhotosCollection(marker MarkerID) string {
	return "photos/" + string(marker)
}

// PhotoNamespace is the cache namespace holding all images of a marker's album
func PhotoNamespace(marker MarkerID) string {
	return "photos/" + string(marker)
}

func PhotoImageKey(marker MarkerID, id PhotoID) imagecache.Key {
	return imagecache.Key{Namespace: PhotoNamespace(marker), Name: id.String()}
}
