package album

import (
	"context"

	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/library"
)

const SyncCollection = "sync"

// Reporter is told when a synchronization starts and how it ended
type Reporter interface {
	Started(ctx context.Context, id library.MarkerID)
	Finished(ctx context.Context, r Result)
}

type syncStatus struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Photos  int    `json:"photos"`
}

type eventReporter struct {
	publisher events.Publisher
}

// NewEventReporter publishes synchronization progress on the sync collection
func NewEventReporter(p events.Publisher) Reporter {
	return eventReporter{publisher: p}
}

func (r eventReporter) Started(ctx context.Context, id library.MarkerID) {
	r.publish(string(id), syncStatus{State: Fetching})
}

func (r eventReporter) Finished(ctx context.Context, res Result) {
	r.publish(string(res.Marker.ID), syncStatus{State: res.State, Message: res.Message, Photos: len(res.Photos)})
}

func (r eventReporter) publish(id string, status syncStatus) {
	r.publisher.Publish(events.Batch{
		Collection: SyncCollection,
		Changes: []events.Change{
			{Kind: events.Update, ID: id, OldIndex: -1, NewIndex: -1, Value: status},
		},
	})
}

type nopReporter struct{}

func (nopReporter) Started(ctx context.Context, id library.MarkerID) {}
func (nopReporter) Finished(ctx context.Context, r Result) {}
