package imagecache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagecache_hits",
		Help: "Number of images served from the memory or disk tier",
	})
	diskHitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagecache_disk_hits",
		Help: "Number of images served from the disk tier, also counted as hit",
	})
	missesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagecache_misses",
		Help: "Number of image lookups not found in any tier",
	})
	evictionsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagecache_memory_evictions",
		Help: "Number of images dropped from the memory tier because it was full",
	})
	writesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagecache_writes",
		Help: "Number of images stored in the cache",
	})
)

type Stats struct {
	Hits          int `json:"hits"`
	DiskHits      int `json:"diskhits"`
	Misses        int `json:"misses"`
	Evictions     int `json:"evictions"`
	Writes        int `json:"writes"`
	MemoryEntries int `json:"memoryentries"`
}

type internalStats struct {
	lock sync.Mutex
	Stats
}

func (s *internalStats) hit(disk bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	hitsCounter.Inc()
	s.Hits++
	if disk {
		diskHitsCounter.Inc()
		s.DiskHits++
	}
}

func (s *internalStats) miss() {
	s.lock.Lock()
	defer s.lock.Unlock()
	missesCounter.Inc()
	s.Misses++
}

func (s *internalStats) eviction() {
	s.lock.Lock()
	defer s.lock.Unlock()
	evictionsCounter.Inc()
	s.Evictions++
}

func (s *internalStats) write() {
	s.lock.Lock()
	defer s.lock.Unlock()
	writesCounter.Inc()
	s.Writes++
}

func (s *internalStats) snapshot() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.Stats
}
