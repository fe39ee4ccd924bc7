package core

// record.go holds the record containers the check stage reads from.
//
// A Container is an indexable sequence of records of one kind. Records are
// soft-deleted by changing their state; they keep their index until the
// container is compacted by whoever owns it.

import (
	"errors"
	"fmt"
)

// ErrDuplicateKind is returned when a kind is added to Collections twice.
var ErrDuplicateKind = errors.New("kind already present")

// Record is any referenceable record payload.
type Record interface {
	RecordID() string
}

// RecordState tracks the edit state of a record.
type RecordState int

const (
	StateBaseOnly RecordState = iota
	StateModified
	StateModifiedOnly
	StateDeleted
	StateErased
)

// IsDeleted reports whether the record is pending removal.
func (s RecordState) IsDeleted() bool {
	return s == StateDeleted || s == StateErased
}

// String returns the state name.
func (s RecordState) String() string {
	switch s {
	case StateBaseOnly:
		return "base"
	case StateModified:
		return "modified"
	case StateModifiedOnly:
		return "modified_only"
	case StateDeleted:
		return "deleted"
	case StateErased:
		return "erased"
	default:
		return "unknown"
	}
}

// Entry is a record together with its state.
type Entry struct {
	Record Record
	State  RecordState
}

// IsDeleted reports whether the entry is soft-deleted.
func (e Entry) IsDeleted() bool {
	return e.State.IsDeleted()
}

// Container is an indexable sequence of records of one kind.
type Container interface {
	Size() int
	Entry(index int) Entry
}

// Collection is the in-memory Container implementation.
// It is not safe for concurrent mutation.
type Collection struct {
	entries []Entry
	index   map[string]int
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[string]int)}
}

// Append adds a record in the given state and returns its index.
func (c *Collection) Append(rec Record, state RecordState) int {
	c.entries = append(c.entries, Entry{Record: rec, State: state})
	i := len(c.entries) - 1
	c.index[rec.RecordID()] = i
	return i
}

// Size returns the number of records, deleted ones included.
func (c *Collection) Size() int {
	return len(c.entries)
}

// Entry returns the entry at index. Panics if index is out of range.
func (c *Collection) Entry(index int) Entry {
	return c.entries[index]
}

// Find returns the index of the record with the given id, or -1.
func (c *Collection) Find(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// MarkDeleted soft-deletes the record with the given id.
// Returns false if no such record exists.
func (c *Collection) MarkDeleted(id string) bool {
	i := c.Find(id)
	if i < 0 {
		return false
	}
	c.entries[i].State = StateDeleted
	return true
}

// Collections is an ordered set of (Kind, Container) pairs.
// The order of Add calls defines the step-to-record mapping of a check run.
type Collections struct {
	kinds      []Kind
	containers map[Kind]Container
}

// NewCollections creates an empty set.
func NewCollections() *Collections {
	return &Collections{containers: make(map[Kind]Container)}
}

// Add appends a container for kind.
func (c *Collections) Add(kind Kind, container Container) error {
	if _, exists := c.containers[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	c.kinds = append(c.kinds, kind)
	c.containers[kind] = container
	return nil
}

// Kinds returns the kinds in step order.
func (c *Collections) Kinds() []Kind {
	out := make([]Kind, len(c.kinds))
	copy(out, c.kinds)
	return out
}

// Container returns the container registered for kind.
func (c *Collections) Container(kind Kind) (Container, bool) {
	ct, ok := c.containers[kind]
	return ct, ok
}

// Size returns the number of records held for kind (0 if absent).
func (c *Collections) Size(kind Kind) int {
	if ct, ok := c.containers[kind]; ok {
		return ct.Size()
	}
	return 0
}

// Len returns the total number of records across all kinds.
func (c *Collections) Len() int {
	n := 0
	for _, k := range c.kinds {
		n += c.containers[k].Size()
	}
	return n
}
