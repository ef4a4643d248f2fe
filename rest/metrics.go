package rest

import (
	"net/http"

	"bitbucket.org/kleinnic74/tourist/imagecache"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type StatsSource interface {
	CacheStats() imagecache.Stats
}

type MetricsHandler struct {
	handler http.Handler
	stats   StatsSource
}

func NewMetricsHandler(stats StatsSource) *MetricsHandler {
	return &MetricsHandler{
		handler: promhttp.Handler(),
		stats:   stats,
	}
}

func (m *MetricsHandler) InitRoutes(r *mux.Router) {
	r.Handle("/metrics", m.handler).Methods("GET")
	r.HandleFunc("/cache/stats", m.cacheStats).Methods("GET")
}

func (m *MetricsHandler) cacheStats(w http.ResponseWriter, r *http.Request) {
	Respond(r).WithJSON(w, http.StatusOK, m.stats.CacheStats())
}
