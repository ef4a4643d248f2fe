package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/logging"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type SSEHandler struct {
	events *events.Stream
}

func NewSSEHandler(stream *events.Stream) *SSEHandler {
	return &SSEHandler{
		events: stream,
	}
}

func (e *SSEHandler) InitRoutes(router *mux.Router) {
	router.HandleFunc("/eventstream", e.listen).Methods("GET").Name("/eventstream")
}

type batchHeader struct {
	Seq        uint64         `json:"seq"`
	Collection string         `json:"collection"`
	Section    events.Section `json:"section,omitempty"`
	Count      int            `json:"count"`
}

// listen streams every batch as a 'begin' event, one 'change' event per
// change and an 'end' event. The optional 'collection' query parameter
// restricts the stream to collections with that prefix.
func (e *SSEHandler) listen(w http.ResponseWriter, r *http.Request) {
	logger := logging.From(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Warn("HTTP Flusher not supported")
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	prefix := r.URL.Query().Get("collection")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	e.events.Listen(r.Context(), func(b events.Batch) {
		if !strings.HasPrefix(b.Collection, prefix) {
			return
		}
		if err := writeBatch(w, b); err != nil {
			logger.Debug("Failed to write event", zap.Error(err))
			return
		}
		flusher.Flush()
	})
}

func writeBatch(w io.Writer, b events.Batch) error {
	header := batchHeader{Seq: b.Seq, Collection: b.Collection, Section: b.Section, Count: len(b.Changes)}
	if err := writeEvent(w, "begin", b.Seq, header); err != nil {
		return err
	}
	for _, c := range b.Changes {
		if err := writeEvent(w, "change", b.Seq, c); err != nil {
			return err
		}
	}
	return writeEvent(w, "end", b.Seq, header)
}

func writeEvent(w io.Writer, name string, seq uint64, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", name, seq, data)
	return err
}
