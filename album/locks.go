package album

import (
	"sync"

	"bitbucket.org/kleinnic74/tourist/library"
)

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per marker, entries are dropped once no
// goroutine holds or waits for them
type keyedMutex struct {
	lock  sync.Mutex
	locks map[library.MarkerID]*keyedLock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[library.MarkerID]*keyedLock)}
}

func (k *keyedMutex) Lock(id library.MarkerID) (unlock func()) {
	k.lock.Lock()
	l, found := k.locks[id]
	if !found {
		l = &keyedLock{}
		k.locks[id] = l
	}
	l.refs++
	k.lock.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.lock.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.lock.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	return len(k.locks)
}
