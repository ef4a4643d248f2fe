package rest

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"

	"bitbucket.org/kleinnic74/tourist/album"
	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/logging"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MarkerLibrary is the part of the library needed to serve markers and
// their albums
type MarkerLibrary interface {
	FetchAllMarkers(ctx context.Context) ([]library.Marker, error)
	GetMarker(ctx context.Context, id library.MarkerID) (*library.Marker, error)
	DeleteMarker(ctx context.Context, id library.MarkerID) error
	DeleteAllMarkers(ctx context.Context) (int, error)
	FetchPhotos(ctx context.Context, marker library.MarkerID) ([]library.Photo, error)
	GetPhoto(ctx context.Context, marker library.MarkerID, id library.PhotoID) (*library.Photo, error)
	DeletePhoto(ctx context.Context, marker library.MarkerID, id library.PhotoID) error
	PhotoImage(ctx context.Context, marker library.MarkerID, id library.PhotoID) (image.Image, error)
	AddFavorite(ctx context.Context, marker library.MarkerID, id library.PhotoID) (*library.Favorite, error)
}

// Synchronizer creates markers and refreshes their albums
type Synchronizer interface {
	CreateMarker(ctx context.Context, lat, lon float64) (*library.Marker, album.Result, error)
	Refresh(ctx context.Context, id library.MarkerID) (album.Result, error)
}

type MarkersHandler struct {
	lib  MarkerLibrary
	sync Synchronizer
}

func NewMarkersHandler(lib MarkerLibrary, sync Synchronizer) *MarkersHandler {
	return &MarkersHandler{lib: lib, sync: sync}
}

func (h *MarkersHandler) InitRoutes(r *mux.Router) {
	r.HandleFunc("/markers", h.listMarkers).Methods(http.MethodGet)
	r.HandleFunc("/markers", h.createMarker).Methods(http.MethodPost)
	r.HandleFunc("/markers", h.deleteAllMarkers).Methods(http.MethodDelete)
	r.HandleFunc("/markers/{id}", h.getMarker).Methods(http.MethodGet)
	r.HandleFunc("/markers/{id}", h.deleteMarker).Methods(http.MethodDelete)
	r.HandleFunc("/markers/{id}/album", h.refreshAlbum).Methods(http.MethodPost)
	r.HandleFunc("/markers/{id}/photos", h.listPhotos).Methods(http.MethodGet)
	r.HandleFunc("/markers/{id}/photos/{photo}", h.getPhoto).Methods(http.MethodGet)
	r.HandleFunc("/markers/{id}/photos/{photo}", h.deletePhoto).Methods(http.MethodDelete)
	r.HandleFunc("/markers/{id}/photos/{photo}/image", h.getPhotoImage).Methods(http.MethodGet)
	r.HandleFunc("/markers/{id}/photos/{photo}/favorite", h.addFavorite).Methods(http.MethodPost)
}

type newMarker struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

var errMissingCoordinates = errors.New("Both 'lat' and 'lon' are required")

func (h *MarkersHandler) listMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.lib.FetchAllMarkers(r.Context())
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, &simplePayload{Data: markers})
}

func (h *MarkersHandler) createMarker(w http.ResponseWriter, r *http.Request) {
	var in newMarker
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Respond(r).WithError(w, http.StatusBadRequest, err)
		return
	}
	if in.Lat == nil || in.Lon == nil {
		Respond(r).WithError(w, http.StatusBadRequest, errMissingCoordinates)
		return
	}
	m, result, err := h.sync.CreateMarker(r.Context(), *in.Lat, *in.Lon)
	if m == nil {
		respondWithFailure(w, r, err)
		return
	}
	if err != nil {
		logging.From(r.Context()).Warn("Marker created but album not stored", zap.Error(err))
	}
	m.RecentDrop = true
	result.Marker = m
	Respond(r).WithJSON(w, http.StatusCreated, result)
}

func (h *MarkersHandler) deleteAllMarkers(w http.ResponseWriter, r *http.Request) {
	count, err := h.lib.DeleteAllMarkers(r.Context())
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, map[string]int{"deleted": count})
}

func (h *MarkersHandler) getMarker(w http.ResponseWriter, r *http.Request) {
	m, err := h.lib.GetMarker(r.Context(), markerID(r))
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, m)
}

func (h *MarkersHandler) deleteMarker(w http.ResponseWriter, r *http.Request) {
	if err := h.lib.DeleteMarker(r.Context(), markerID(r)); err != nil {
		respondWithFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarkersHandler) refreshAlbum(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.Refresh(r.Context(), markerID(r))
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, result)
}

func (h *MarkersHandler) listPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.lib.FetchPhotos(r.Context(), markerID(r))
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, &simplePayload{Data: photos})
}

func (h *MarkersHandler) getPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := photoID(w, r)
	if !ok {
		return
	}
	p, err := h.lib.GetPhoto(r.Context(), markerID(r), id)
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, p)
}

func (h *MarkersHandler) deletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := photoID(w, r)
	if !ok {
		return
	}
	if err := h.lib.DeletePhoto(r.Context(), markerID(r), id); err != nil {
		respondWithFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarkersHandler) getPhotoImage(w http.ResponseWriter, r *http.Request) {
	id, ok := photoID(w, r)
	if !ok {
		return
	}
	img, err := h.lib.PhotoImage(r.Context(), markerID(r), id)
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	respondWithImage(w, img)
}

func (h *MarkersHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := photoID(w, r)
	if !ok {
		return
	}
	f, err := h.lib.AddFavorite(r.Context(), markerID(r), id)
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusCreated, f)
}

func markerID(r *http.Request) library.MarkerID {
	return library.MarkerID(mux.Vars(r)["id"])
}

func photoID(w http.ResponseWriter, r *http.Request) (library.PhotoID, bool) {
	id, err := library.ParsePhotoID(mux.Vars(r)["photo"])
	if err != nil {
		Respond(r).WithError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
