package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entries(ids ...string) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Value: id}
	}
	return out
}

func kinds(b Batch) []Kind {
	out := make([]Kind, len(b.Changes))
	for i, c := range b.Changes {
		out[i] = c.Kind
	}
	return out
}

func TestDiffDeletesDescendingThenInsertsAscending(t *testing.T) {
	b := Diff("photos/m", entries("1", "2", "3", "4"), entries("2", "5", "4", "6"))
	assert.Equal(t, SectionNone, b.Section)
	assert.Equal(t, []Change{
		{Kind: Delete, ID: "3", OldIndex: 2, NewIndex: -1},
		{Kind: Delete, ID: "1", OldIndex: 0, NewIndex: -1},
		{Kind: Insert, ID: "5", OldIndex: -1, NewIndex: 1, Value: "5"},
		{Kind: Insert, ID: "6", OldIndex: -1, NewIndex: 3, Value: "6"},
	}, b.Changes)
}

func TestDiffSections(t *testing.T) {
	b := Diff("photos/m", nil, entries("1", "2"))
	assert.Equal(t, SectionInsert, b.Section)
	assert.Equal(t, []Kind{Insert, Insert}, kinds(b))

	b = Diff("photos/m", entries("1", "2"), nil)
	assert.Equal(t, SectionDelete, b.Section)
	assert.Equal(t, []Kind{Delete, Delete}, kinds(b))
	assert.Equal(t, 1, b.Changes[0].OldIndex)

	b = Diff("photos/m", nil, nil)
	assert.True(t, b.Empty())
}

func TestDiffUpdatesAndMoves(t *testing.T) {
	before := []Entry{{ID: "a", Value: 1}, {ID: "b", Value: 1}, {ID: "c", Value: 1}}
	after := []Entry{{ID: "a", Value: 2}, {ID: "c", Value: 1}, {ID: "b", Value: 1}}
	b := Diff("markers", before, after)
	assert.Equal(t, []Change{
		{Kind: Update, ID: "a", OldIndex: 0, NewIndex: 0, Value: 2},
		{Kind: Move, ID: "c", OldIndex: 2, NewIndex: 1, Value: 1},
		{Kind: Move, ID: "b", OldIndex: 1, NewIndex: 2, Value: 1},
	}, b.Changes)
}

func TestDiffUnchanged(t *testing.T) {
	b := Diff("markers", entries("a", "b"), entries("a", "b"))
	assert.True(t, b.Empty())
	assert.NotNil(t, b.Changes)
}
