package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a kind name does not match any record kind.
var ErrUnknownKind = errors.New("unknown record kind")

// Kind identifies a category of referenceable record.
// The zero value is not a valid kind.
type Kind int

const (
	KindBook Kind = iota + 1
	KindActivator
	KindPotion
	KindApparatus
)

// kindNames holds the universal-id type name and dataset key for each kind.
var kindNames = map[Kind]struct {
	typeName string
	key      string
}{
	KindBook:      {"Book", "books"},
	KindActivator: {"Activator", "activators"},
	KindPotion:    {"Potion", "potions"},
	KindApparatus: {"Apparatus", "apparati"},
}

// String returns the type name used in universal ids ("Book", "Potion", ...).
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n.typeName
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Key returns the lowercase plural key used in datasets and the HTTP API.
func (k Kind) Key() string {
	if n, ok := kindNames[k]; ok {
		return n.key
	}
	return ""
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves a dataset key ("books") or type name ("Book").
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for k, n := range kindNames {
		if strings.EqualFold(s, n.key) || strings.EqualFold(s, n.typeName) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// UniversalID tags a record with its kind so a report can be traced back to it.
type UniversalID struct {
	Kind Kind
	ID   string
}

// String renders the id as "<TypeName>: <id>".
func (u UniversalID) String() string {
	return u.Kind.String() + ": " + u.ID
}

// Diagnostic is a single data-integrity finding for one record.
type Diagnostic struct {
	ID      UniversalID
	Problem string // e.g. "has an empty name"
}

// String renders the message as "<universal id>|<record id> <problem>".
func (d Diagnostic) String() string {
	return d.ID.String() + "|" + d.ID.ID + " " + d.Problem
}
