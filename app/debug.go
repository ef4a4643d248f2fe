package app

import (
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
)

// DebugHandler exposes the registered routes and the pprof endpoints
type DebugHandler struct{}

func (d DebugHandler) InitRoutes(router *mux.Router) {
	router.HandleFunc("/debug/mux", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/html")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprintln(rw, "<html><head><title>Endpoints</title></head><body>")
		router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
			t, err := route.GetPathTemplate()
			if err != nil {
				return nil
			}
			methods, _ := route.GetMethods()
			fmt.Fprintf(rw, "<div><a href=\"%s\">%s</a> %v</div>\n", t, t, methods)
			return nil
		})
		fmt.Fprintln(rw, "</body></html>")
	}).Methods(http.MethodGet)

	router.HandleFunc("/debug/pprof/", pprof.Index).Methods(http.MethodGet)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)

	for _, profile := range []string{"goroutine", "heap", "allocs", "block", "mutex"} {
		router.Handle("/debug/pprof/"+profile, pprof.Handler(profile))
	}
}
