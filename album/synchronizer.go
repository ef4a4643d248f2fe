// Package album keeps the photo album of a marker in sync with the remote
// photo search
package album

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"sync"
	"time"

	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/logging"
	"bitbucket.org/kleinnic74/tourist/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAlbumSize     = 8
	DefaultSearchTimeout = 20 * time.Second
	DefaultFetchTimeout  = 30 * time.Second
)

var (
	syncCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "album",
		Name:      "syncs_total",
		Help:      "Number of album synchronizations by final state",
	}, []string{"state"})
	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Subsystem: "album",
		Name:      "sync_duration_seconds",
		Help:      "Duration of album synchronizations",
		Buckets:   prometheus.DefBuckets,
	})
)

// Library is the part of the photo library the synchronizer works on
type Library interface {
	CreateMarker(ctx context.Context, lat, lon float64) (*library.Marker, error)
	GetMarker(ctx context.Context, id library.MarkerID) (*library.Marker, error)
	ClearAlbum(ctx context.Context, id library.MarkerID) ([]library.Photo, error)
	ReplacePhotoAlbum(ctx context.Context, id library.MarkerID, descriptors []search.Descriptor) ([]library.Photo, error)
	PhotoImage(ctx context.Context, marker library.MarkerID, id library.PhotoID) (image.Image, error)
}

type Options struct {
	AlbumSize     int
	Policy        Policy
	SearchTimeout time.Duration
	// Prefetch is the number of parallel image downloads started after a
	// successful synchronization, 0 disables prefetching
	Prefetch     int
	FetchTimeout time.Duration
	Reporter     Reporter
	Rand         *rand.Rand
}

// Synchronizer replaces marker albums with random samples of remote search
// results. Synchronizations of the same marker run one after the other.
type Synchronizer struct {
	lib      Library
	searcher search.Searcher
	options  Options
	locks    *keyedMutex

	randLock   sync.Mutex
	background sync.WaitGroup
}

func NewSynchronizer(lib Library, searcher search.Searcher, o Options) *Synchronizer {
	if o.AlbumSize <= 0 {
		o.AlbumSize = DefaultAlbumSize
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = DefaultSearchTimeout
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Reporter == nil {
		o.Reporter = nopReporter{}
	}
	return &Synchronizer{lib: lib, searcher: searcher, options: o, locks: newKeyedMutex()}
}

// CreateMarker stores a new marker and synchronizes its album. The error is
// only set when the marker could not be created or the album not be stored,
// search failures are reported in the Result.
func (s *Synchronizer) CreateMarker(ctx context.Context, lat, lon float64) (*library.Marker, Result, error) {
	m, err := s.lib.CreateMarker(ctx, lat, lon)
	if err != nil {
		return nil, Result{State: Failed, Err: err}, err
	}
	res, err := s.sync(ctx, m, true)
	return res.Marker, res, err
}

// Refresh replaces the album of an existing marker
func (s *Synchronizer) Refresh(ctx context.Context, id library.MarkerID) (Result, error) {
	m, err := s.lib.GetMarker(ctx, id)
	if err != nil {
		return Result{State: Failed, Err: err}, err
	}
	return s.sync(ctx, m, false)
}

// Wait blocks until all background image prefetches are done
func (s *Synchronizer) Wait() {
	s.background.Wait()
}

func (s *Synchronizer) sync(ctx context.Context, m *library.Marker, creating bool) (res Result, err error) {
	log, ctx := logging.FromWithNameAndFields(ctx, "album", zap.Stringer("marker", m.ID))
	unlock := s.locks.Lock(m.ID)
	defer unlock()

	start := time.Now()
	marker := *m
	marker.RecentDrop = false
	res = Result{Marker: &marker, State: Idle, Photos: []library.Photo{}}
	s.options.Reporter.Started(ctx, m.ID)
	defer func() {
		syncCount.WithLabelValues(string(res.State)).Inc()
		syncDuration.Observe(time.Since(start).Seconds())
		log.Info("Album synchronization finished", zap.String("state", string(res.State)),
			zap.Int("photos", len(res.Photos)), zap.Duration("duration", time.Since(start)), zap.Error(res.Err))
		s.options.Reporter.Finished(ctx, res)
	}()

	fail := func(message string, cause error) (Result, error) {
		res.State = Failed
		res.Message = message
		res.Err = cause
		var persistence *library.PersistenceError
		if errors.As(cause, &persistence) {
			return res, cause
		}
		return res, nil
	}

	if s.options.Policy == ClearFirst {
		res.State = Clearing
		if _, err := s.lib.ClearAlbum(ctx, m.ID); err != nil {
			return fail(MessagePersisting, err)
		}
		marker.HasAlbum = false
	}

	res.State = Fetching
	searchCtx, cancel := context.WithTimeout(ctx, s.options.SearchTimeout)
	descriptors, err := s.searcher.Search(searchCtx, m.SearchBox())
	cancel()
	if err != nil {
		if search.IsNotFound(err) {
			return fail(MessageNotFound, err)
		}
		return fail(MessageUnknown, err)
	}
	if len(descriptors) == 0 && creating {
		return fail(MessageNoPhotos, search.ErrEmptyResult)
	}

	res.State = Sampling
	s.randLock.Lock()
	sample := search.Sample(descriptors, s.options.AlbumSize, s.options.Rand)
	s.randLock.Unlock()
	log.Debug("Sampled album", zap.Int("candidates", len(descriptors)), zap.Int("sampled", len(sample)))

	res.State = Persisting
	photos, err := s.lib.ReplacePhotoAlbum(ctx, m.ID, sample)
	if err != nil {
		return fail(MessagePersisting, err)
	}
	res.State = Done
	res.Photos = photos
	marker.HasAlbum = len(photos) > 0
	s.prefetch(ctx, photos)
	return res, nil
}

// prefetch warms the image cache for photos in the background
func (s *Synchronizer) prefetch(ctx context.Context, photos []library.Photo) {
	if s.options.Prefetch <= 0 || len(photos) == 0 {
		return
	}
	log := logging.From(ctx)
	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(s.options.Prefetch)
		for _, p := range photos {
			p := p
			g.Go(func() error {
				fetchCtx, cancel := context.WithTimeout(ctx, s.options.FetchTimeout)
				defer cancel()
				_, err := s.lib.PhotoImage(fetchCtx, p.Marker, p.ID)
				if err != nil && !errors.Is(err, library.ErrNotFound) {
					log.Debug("Prefetch failed", zap.Stringer("photo", p.ID), zap.Error(err))
				}
				return nil
			})
		}
		g.Wait()
	}()
}
