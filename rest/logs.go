package rest

import (
	"net/http"

	"bitbucket.org/kleinnic74/tourist/consts"
	"bitbucket.org/kleinnic74/tourist/logging"
	"github.com/gorilla/mux"
)

type logsHandler struct{}

// NewLogsHandler serves the most recent log lines, newest first unless
// order=asc is requested
func NewLogsHandler() logsHandler {
	return logsHandler{}
}

func (l logsHandler) InitRoutes(r *mux.Router) {
	r.Handle("/logs", l).Methods("GET")
}

func sortOrder(r *http.Request) consts.SortOrder {
	if r.URL.Query().Get("order") == "asc" {
		return consts.Ascending
	}
	return consts.Descending
}

func (l logsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "text/plain")
	w.Header().Add("X-Sort-Order", sortOrder(r).String())
	w.WriteHeader(http.StatusOK)
	logging.Dump(w, sortOrder(r) == consts.Descending)
}
