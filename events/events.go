// Package events carries committed store changes to listeners as ordered
// batches. Empty batches are never published and consume no sequence number.
// Deleting an album that holds no photos therefore emits nothing: creating a
// marker or refreshing an empty album produces only the insert batch, so SSE
// consumers must not wait for a photos delete bracket before applying it.
package events

import (
	"context"
	"sync"

	"bitbucket.org/kleinnic74/tourist/logging"
	"go.uber.org/zap"
)

const (
	publishBuffer      = 64
	subscriptionBuffer = 256
)

// Publisher receives committed change batches
type Publisher interface {
	Publish(b Batch)
}

// PublisherFunc adapts a function to the Publisher interface
type PublisherFunc func(b Batch)

func (f PublisherFunc) Publish(b Batch) {
	f(b)
}

// Stream fans out published batches to all listeners, in publish order.
// Listeners that do not keep up are disconnected.
type Stream struct {
	lock    sync.Mutex
	seq     uint64
	channel chan Batch

	subcriptions chan *subscription
	unsubcribes  chan *subscription
	done         chan struct{}
}

type subscription struct {
	events chan Batch
}

func NewStream() *Stream {
	return &Stream{
		channel:      make(chan Batch, publishBuffer),
		subcriptions: make(chan *subscription),
		unsubcribes:  make(chan *subscription),
		done:         make(chan struct{}),
	}
}

// Publish assigns the next sequence number to b and queues it for dispatch
func (s *Stream) Publish(b Batch) {
	if b.Empty() {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.seq++
	b.Seq = s.seq
	select {
	case s.channel <- b:
	case <-s.done:
	}
}

// Listen calls f for each batch until ctx is done or the listener falls behind
func (s *Stream) Listen(ctx context.Context, f func(b Batch)) {
	subscription, ok := s.subscribe(ctx)
	if !ok {
		return
	}
	for {
		select {
		case b, open := <-subscription.events:
			if !open {
				logging.From(ctx).Warn("Listener dropped from event stream")
				return
			}
			f(b)
		case <-ctx.Done():
			select {
			case s.unsubcribes <- subscription:
			case <-s.done:
			}
			return
		}
	}
}

func (s *Stream) subscribe(ctx context.Context) (*subscription, bool) {
	sub := &subscription{
		events: make(chan Batch, subscriptionBuffer),
	}
	select {
	case s.subcriptions <- sub:
		return sub, true
	case <-ctx.Done():
		return nil, false
	case <-s.done:
		return nil, false
	}
}

// Dispatch delivers batches to listeners until ctx is done
func (s *Stream) Dispatch(ctx context.Context) {
	defer close(s.done)
	logger := logging.From(ctx).Named("events")
	var subscribers []*subscription
	remove := func(sub *subscription) {
		for i := range subscribers {
			if subscribers[i] == sub {
				close(sub.events)
				subscribers = append(subscribers[:i], subscribers[i+1:]...)
				return
			}
		}
	}
	for {
		select {
		case sub := <-s.subcriptions:
			subscribers = append(subscribers, sub)
		case sub := <-s.unsubcribes:
			remove(sub)
		case b := <-s.channel:
			var slow []*subscription
			for _, sub := range subscribers {
				select {
				case sub.events <- b:
				default:
					slow = append(slow, sub)
				}
			}
			for _, sub := range slow {
				logger.Warn("Dropping slow listener", zap.Uint64("seq", b.Seq))
				remove(sub)
			}
		case <-ctx.Done():
			return
		}
	}
}
