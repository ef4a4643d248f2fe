package events

import "reflect"

type Kind string

const (
	Insert = Kind("insert")
	Delete = Kind("delete")
	Update = Kind("update")
	Move   = Kind("move")
)

// Section tells consumers whether a collection appeared or vanished as a
// whole, which requires a full reload instead of applying item changes
type Section string

const (
	SectionNone   = Section("")
	SectionInsert = Section("insert")
	SectionDelete = Section("delete")
)

// Entry is one element of an ordered collection
type Entry struct {
	ID    string
	Value interface{}
}

// Change is a single positional change of a collection. OldIndex is -1 for
// inserts, NewIndex is -1 for deletes.
type Change struct {
	Kind     Kind        `json:"kind"`
	ID       string      `json:"id"`
	OldIndex int         `json:"oldIndex"`
	NewIndex int         `json:"newIndex"`
	Value    interface{} `json:"value,omitempty"`
}

// Batch is the ordered set of changes produced by one committed write
type Batch struct {
	Seq        uint64   `json:"seq"`
	Collection string   `json:"collection"`
	Section    Section  `json:"section,omitempty"`
	Changes    []Change `json:"changes"`
}

func (b Batch) Empty() bool {
	return len(b.Changes) == 0 && b.Section == SectionNone
}

// Diff computes the changes turning before into after. Deletes come first in
// descending old position, then inserts in ascending new position, then
// updates and moves of entries present in both.
func Diff(collection string, before, after []Entry) Batch {
	b := Batch{Collection: collection, Changes: []Change{}}
	switch {
	case len(before) == 0 && len(after) > 0:
		b.Section = SectionInsert
	case len(before) > 0 && len(after) == 0:
		b.Section = SectionDelete
	}

	oldPos := make(map[string]int, len(before))
	for i, e := range before {
		oldPos[e.ID] = i
	}
	newPos := make(map[string]int, len(after))
	for i, e := range after {
		newPos[e.ID] = i
	}

	for i := len(before) - 1; i >= 0; i-- {
		if _, kept := newPos[before[i].ID]; !kept {
			b.Changes = append(b.Changes, Change{Kind: Delete, ID: before[i].ID, OldIndex: i, NewIndex: -1})
		}
	}
	for i, e := range after {
		if _, existed := oldPos[e.ID]; !existed {
			b.Changes = append(b.Changes, Change{Kind: Insert, ID: e.ID, OldIndex: -1, NewIndex: i, Value: e.Value})
		}
	}

	// Rank of each surviving entry among the survivors, before and after
	var keptBefore []string
	for _, e := range before {
		if _, kept := newPos[e.ID]; kept {
			keptBefore = append(keptBefore, e.ID)
		}
	}
	rankBefore := make(map[string]int, len(keptBefore))
	for i, id := range keptBefore {
		rankBefore[id] = i
	}
	rank := 0
	var updates []Change
	for i, e := range after {
		o, existed := oldPos[e.ID]
		if !existed {
			continue
		}
		switch {
		case rankBefore[e.ID] != rank:
			updates = append(updates, Change{Kind: Move, ID: e.ID, OldIndex: o, NewIndex: i, Value: e.Value})
		case !reflect.DeepEqual(before[o].Value, e.Value):
			updates = append(updates, Change{Kind: Update, ID: e.ID, OldIndex: o, NewIndex: i, Value: e.Value})
		}
		rank++
	}
	b.Changes = append(b.Changes, updates...)
	return b
}
