package rest

import (
	"context"
	"image"
	"net/http"

	"bitbucket.org/kleinnic74/tourist/library"
	"github.com/gorilla/mux"
)

type FavoritesLibrary interface {
	FetchFavorites(ctx context.Context) ([]library.Favorite, error)
	GetFavorite(ctx context.Context, id library.FavoriteID) (*library.Favorite, error)
	DeleteFavorite(ctx context.Context, id library.FavoriteID) error
	FavoriteImage(ctx context.Context, id library.FavoriteID) (image.Image, error)
}

type FavoritesHandler struct {
	lib FavoritesLibrary
}

func NewFavoritesHandler(lib FavoritesLibrary) *FavoritesHandler {
	return &FavoritesHandler{lib: lib}
}

func (h *FavoritesHandler) InitRoutes(r *mux.Router) {
	r.HandleFunc("/favorites", h.listFavorites).Methods(http.MethodGet)
	r.HandleFunc("/favorites/{id}", h.getFavorite).Methods(http.MethodGet)
	r.HandleFunc("/favorites/{id}", h.deleteFavorite).Methods(http.MethodDelete)
	r.HandleFunc("/favorites/{id}/image", h.getFavoriteImage).Methods(http.MethodGet)
}

func (h *FavoritesHandler) listFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.lib.FetchFavorites(r.Context())
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, &simplePayload{Data: favorites})
}

func (h *FavoritesHandler) getFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := favoriteID(w, r)
	if !ok {
		return
	}
	f, err := h.lib.GetFavorite(r.Context(), id)
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	Respond(r).WithJSON(w, http.StatusOK, f)
}

func (h *FavoritesHandler) deleteFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := favoriteID(w, r)
	if !ok {
		return
	}
	if err := h.lib.DeleteFavorite(r.Context(), id); err != nil {
		respondWithFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoritesHandler) getFavoriteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := favoriteID(w, r)
	if !ok {
		return
	}
	img, err := h.lib.FavoriteImage(r.Context(), id)
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	respondWithImage(w, img)
}

func favoriteID(w http.ResponseWriter, r *http.Request) (library.FavoriteID, bool) {
	id, err := library.ParseFavoriteID(mux.Vars(r)["id"])
	if err != nil {
		Respond(r).WithError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
