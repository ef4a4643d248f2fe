package imagecache

import (
	"container/list"
	"image"
	"strings"
	"sync"
)

const DefaultMemoryEntries = 256

type memoryEntry struct {
	key Key
	img image.Image
}

// memoryTier keeps decoded images up to a fixed number of entries and drops
// the oldest inserted entry when full
type memoryTier struct {
	lock     sync.Mutex
	capacity int
	order    *list.List
	entries  map[Key]*list.Element
	evicted  func()
}

func newMemoryTier(capacity int, evicted func()) *memoryTier {
	if capacity <= 0 {
		capacity = DefaultMemoryEntries
	}
	return &memoryTier{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[Key]*list.Element),
		evicted:  evicted,
	}
}

func (m *memoryTier) Get(key Key) (image.Image, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if e, found := m.entries[key]; found {
		return e.Value.(*memoryEntry).img, true
	}
	return nil, false
}

func (m *memoryTier) Put(key Key, img image.Image) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if e, found := m.entries[key]; found {
		e.Value.(*memoryEntry).img = img
		return nil
	}
	for m.order.Len() >= m.capacity {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoryEntry).key)
		if m.evicted != nil {
			m.evicted()
		}
	}
	m.entries[key] = m.order.PushBack(&memoryEntry{key: key, img: img})
	return nil
}

func (m *memoryTier) Delete(key Key) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if e, found := m.entries[key]; found {
		m.order.Remove(e)
		delete(m.entries, key)
	}
	return nil
}

func (m *memoryTier) DeleteNamespace(ns string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	prefix := ns + "/"
	for k, e := range m.entries {
		if k.Namespace == ns || strings.HasPrefix(k.Namespace, prefix) {
			m.order.Remove(e)
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memoryTier) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.order.Len()
}
