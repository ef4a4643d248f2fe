package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/kleinnic74/tourist/consts"
	"bitbucket.org/kleinnic74/tourist/logging"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests by handler, method and status",
	}, []string{"handler", "method", "status"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler"})
)

func WithMiddleWares(handler http.Handler, name string) http.Handler {
	return cors(addRequestID(logRequest(recoverPanic(handler), name)))
}

type responseWrapper struct {
	writer http.ResponseWriter
	status int
}

func (w *responseWrapper) Header() http.Header {
	return w.writer.Header()
}

func (w *responseWrapper) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.writer.Write(data)
}

func (w *responseWrapper) WriteHeader(status int) {
	w.status = status
	w.writer.WriteHeader(status)
}

// Flush keeps the event stream working through the wrapper
func (w *responseWrapper) Flush() {
	if f, ok := w.writer.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequest(f http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logging.From(r.Context())
		rid := r.Context().Value(requestIDKey).(string)
		ctx := logging.Context(r.Context(), log.With(zap.String("request", rid)))
		wrapper := responseWrapper{
			writer: w,
		}
		defer func() {
			duration := time.Since(start)
			requestCount.WithLabelValues(name, r.Method, strconv.Itoa(wrapper.status)).Inc()
			requestDuration.WithLabelValues(name).Observe(duration.Seconds())
			log := logging.From(r.Context()).Named(name)
			log.Debug("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", duration),
				zap.String("request", rid),
				zap.Int("status", wrapper.status))
		}()
		f.ServeHTTP(&wrapper, r.WithContext(ctx))
	})
}

func recoverPanic(f http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logging.From(r.Context()).Error("Handler panicked", zap.Any("panic", p), zap.Stack("stack"))
				Respond(r).WithError(w, http.StatusInternalServerError, fmt.Errorf("Internal error"))
			}
		}()
		f.ServeHTTP(w, r)
	})
}

type requestIDKeyType int

const requestIDKey = requestIDKeyType(0)

func addRequestID(f http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
			r.Header.Set("X-Request-ID", rid)
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := context.WithValue(r.Context(), requestIDKey, rid)
		f.ServeHTTP(w, r.WithContext(ctx))
	})
}

func cors(h http.Handler) http.Handler {
	if consts.IsDevMode() {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Access-Control-Allow-Origin", "*")
			h.ServeHTTP(w, r)
		})
	}
	return h
}
