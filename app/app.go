package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bitbucket.org/kleinnic74/tourist/album"
	"bitbucket.org/kleinnic74/tourist/consts"
	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/imagecache"
	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/library/boltstore"
	"bitbucket.org/kleinnic74/tourist/logging"
	"bitbucket.org/kleinnic74/tourist/rest"
	"bitbucket.org/kleinnic74/tourist/search/flickr"
	"bitbucket.org/kleinnic74/tourist/swarm"
	"bitbucket.org/kleinnic74/tourist/tasks"
	"github.com/gorilla/mux"
	"github.com/kleinnic74/fflags"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

const (
	imagesDir = "images"

	shutdownTimeout = 5 * time.Second
)

type App struct {
	dir string

	db       *bolt.DB
	bus      *events.Stream
	executor *tasks.SerialExecutor
	sync     *album.Synchronizer
	peers    *swarm.Controller
	router   *mux.Router

	addr           string
	maxConnections int

	shutdownHandlers shutdownHandlers
}

type FlickrOptions struct {
	APIKey   string `mapstructure:"apikey"`
	BaseURL  string `mapstructure:"baseurl"`
	PageSize int    `mapstructure:"pagesize"`
}

type AlbumOptions struct {
	Size       int  `mapstructure:"size"`
	ClearFirst bool `mapstructure:"clearfirst"`
	Prefetch   int  `mapstructure:"prefetch"`
}

type TimeoutOptions struct {
	Search time.Duration `mapstructure:"search"`
	Fetch  time.Duration `mapstructure:"fetch"`
}

type CacheOptions struct {
	MemoryEntries int `mapstructure:"memoryentries"`
}

type HTTPOptions struct {
	MaxConnections int `mapstructure:"maxconnections"`
}

type LoggingOptions struct {
	File    string `mapstructure:"file"`
	Loggly  string `mapstructure:"loggly"`
	Console bool   `mapstructure:"console"`
}

type Options struct {
	LibDir   string         `mapstructure:"libdir"`
	Port     uint           `mapstructure:"port"`
	DevMode  bool           `mapstructure:"devmode"`
	Flickr   FlickrOptions  `mapstructure:"flickr"`
	Album    AlbumOptions   `mapstructure:"album"`
	Timeouts TimeoutOptions `mapstructure:"timeouts"`
	Cache    CacheOptions   `mapstructure:"cache"`
	HTTP     HTTPOptions    `mapstructure:"http"`
	Logging  LoggingOptions `mapstructure:"logging"`
}

type shutdownHandler func(context.Context, *App)

type shutdownHandlers struct {
	h []shutdownHandler
}

func (hdls *shutdownHandlers) Add(h shutdownHandler) {
	hdls.h = append(hdls.h, h)
}

func (hdls shutdownHandlers) Execute(ctx context.Context, a *App) {
	for i := len(hdls.h) - 1; i >= 0; i-- {
		hdls.h[i](ctx, a)
	}
}

func NewApp(ctx context.Context, o Options) (a *App, err error) {
	logger, ctx := logging.SubFrom(ctx, "app")

	logger.Info("Library directory", zap.String("dir", o.LibDir))
	if err = os.MkdirAll(o.LibDir, os.ModePerm); err != nil {
		return nil, err
	}

	a = &App{
		dir:            o.LibDir,
		addr:           fmt.Sprintf(":%d", o.Port),
		maxConnections: o.HTTP.MaxConnections,
		router:         mux.NewRouter(),
		bus:            events.NewStream(),
		executor:       tasks.NewSerialExecutor(),
	}
	defer func() {
		if err != nil {
			a.shutdownHandlers.Execute(ctx, a)
		}
	}()

	a.db, err = boltstore.Open(o.LibDir, boltstore.DefaultName)
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize data store: %w", err)
	}
	a.shutdownHandlers.Add(func(ctx context.Context, a *App) {
		a.db.Close()
		logging.From(ctx).Info("Closed data store")
	})

	var store library.ClosableStore
	if store, err = boltstore.NewBoltStore(a.db, a.bus); err != nil {
		return nil, fmt.Errorf("Failed to initialize library: %w", err)
	}

	var cache *imagecache.Cache
	cache, err = imagecache.New(filepath.Join(o.LibDir, imagesDir), imagecache.Options{MemoryEntries: o.Cache.MemoryEntries})
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize image cache: %w", err)
	}

	client := flickr.NewClient(flickr.Options{
		APIKey:   o.Flickr.APIKey,
		BaseURL:  o.Flickr.BaseURL,
		PageSize: o.Flickr.PageSize,
		Timeout:  o.Timeouts.Fetch,
	})
	if o.Flickr.APIKey == "" {
		logger.Warn("No Flickr API key configured, searches will fail")
	}

	lib := library.NewLibrary(store, cache, client, a.executor)
	logger.Info("Opened library", zap.String("path", o.LibDir), zap.Stringer("search", client))

	policy := album.StageThenSwap
	if o.Album.ClearFirst {
		policy = album.ClearFirst
	}
	a.sync = album.NewSynchronizer(lib, client, album.Options{
		AlbumSize:     o.Album.Size,
		Policy:        policy,
		SearchTimeout: o.Timeouts.Search,
		Prefetch:      o.Album.Prefetch,
		FetchTimeout:  o.Timeouts.Fetch,
		Reporter:      album.NewEventReporter(a.bus),
	})
	logger.Info("Album synchronizer", zap.Stringer("policy", policy), zap.Int("prefetch", o.Album.Prefetch))

	if err = fflags.IfEnabled(fflags.Define("discovery.mdns"), func() error {
		instance, err := swarm.LoadOrCreateInstance(a.db, defaultInstanceProperties(o))
		if err != nil {
			return err
		}
		logger.Info("Local instance", zap.Stringer("instance", instance.ID), zap.String("name", instance.Name))
		a.peers = swarm.NewController(instance, int(o.Port))
		peersRest := rest.NewPeersAPI(a.peers)
		peersRest.InitRoutes(a.router)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("Failed to initialize discovery: %w", err)
	}

	// REST Handlers

	metrics := rest.NewMetricsHandler(lib)
	metrics.InitRoutes(a.router)

	if consts.IsDevMode() {
		logs := rest.NewLogsHandler()
		logs.InitRoutes(a.router)
		debugService := DebugHandler{}
		debugService.InitRoutes(a.router)
	}

	sse := rest.NewSSEHandler(a.bus)
	sse.InitRoutes(a.router)

	markers := rest.NewMarkersHandler(lib, a.sync)
	markers.InitRoutes(a.router)

	favorites := rest.NewFavoritesHandler(lib)
	favorites.InitRoutes(a.router)

	mapView := rest.NewMapView(lib)
	mapView.InitRoutes(a.router)

	tasksApp := rest.NewTaskHandler(a.executor)
	tasksApp.InitRoutes(a.router)

	return a, nil
}

// Run starts all background loops and the HTTP server and blocks until ctx
// is done and everything has been shut down
func (a *App) Run(ctx context.Context) error {
	logger, ctx := logging.SubFrom(ctx, "app")

	listener, err := net.Listen("tcp", a.addr)
	if err != nil {
		a.shutdownHandlers.Execute(ctx, a)
		return fmt.Errorf("Failed to listen on %s: %w", a.addr, err)
	}
	if a.maxConnections > 0 {
		listener = netutil.LimitListener(listener, a.maxConnections)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		logger, ctx := logging.SubFrom(ctx, "eventbus")
		a.bus.Dispatch(ctx)
		logger.Info("DONE")
		wg.Done()
	}()
	wg.Add(1)
	go func() {
		logger, ctx := logging.SubFrom(ctx, "tasks")
		a.executor.DrainTasks(ctx)
		logger.Info("DONE")
		wg.Done()
	}()
	if a.peers != nil {
		wg.Add(1)
		go func() {
			logger, ctx := logging.SubFrom(ctx, "swarm")
			if err := a.peers.ListenAndServe(ctx); err != nil {
				logger.Warn("Discovery stopped", zap.Error(err))
			}
			logger.Info("DONE")
			wg.Done()
		}()
	}

	server := http.Server{
		Handler:     rest.WithMiddleWares(a.router, "rest"),
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}
	wg.Add(1)
	go func() {
		logger, _ := logging.SubFrom(ctx, "http")
		logger.Info("Starting HTTP server...", zap.String("bindAddr", a.addr), zap.Int("maxConnections", a.maxConnections))
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		logger.Info("DONE")
		wg.Done()
	}()

	<-ctx.Done()

	logger.Info("Stopping...")

	ctxShutdown, cancelServerShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancelServerShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	wg.Wait()
	a.sync.Wait()
	a.shutdownHandlers.Execute(ctx, a)

	logger.Info("Terminated gracefully")
	return nil
}
