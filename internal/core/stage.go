package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotSetUp is returned when Perform is called before Setup.
var ErrNotSetUp = errors.New("stage not set up")

// Stage is one unit of a staged check. The host calls Setup once to learn
// the step count N, then Perform for every step in [0, N).
//
// Perform returns an error only for contract violations in the host loop.
// Findings go to the sink.
type Stage interface {
	Name() string
	Setup() int
	Perform(step int, sink Sink) error
}

// Sink receives diagnostics in the order they are produced.
type Sink interface {
	Append(d Diagnostic)
}

// MessageLog is an append-only, goroutine-safe Sink.
type MessageLog struct {
	mu       sync.Mutex
	messages []Diagnostic
}

// Append records d.
func (l *MessageLog) Append(d Diagnostic) {
	l.mu.Lock()
	l.messages = append(l.messages, d)
	l.mu.Unlock()
}

// Len returns the number of messages recorded so far.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Messages returns the recorded diagnostics rendered as strings.
func (l *MessageLog) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.messages))
	for i, d := range l.messages {
		out[i] = d.String()
	}
	return out
}

// ReferenceableCheckStage validates every referenceable record, one record
// per step. It borrows the collections for the duration of a run; callers
// must not mutate them between Setup and the last Perform.
type ReferenceableCheckStage struct {
	records    *Collections
	validators ValidatorLookup

	snapshot *Snapshot
}

// NewReferenceableCheckStage creates the stage. A nil lookup uses the
// global kind registry.
func NewReferenceableCheckStage(records *Collections, validators ValidatorLookup) *ReferenceableCheckStage {
	if validators == nil {
		validators = RegistryValidators()
	}
	return &ReferenceableCheckStage{records: records, validators: validators}
}

// Name identifies the stage in progress reports.
func (s *ReferenceableCheckStage) Name() string {
	return "referenceables"
}

// Setup captures the container sizes and returns the number of steps.
func (s *ReferenceableCheckStage) Setup() int {
	snap := TakeSnapshot(s.records)
	s.snapshot = &snap
	return snap.Total()
}

// Perform checks the record addressed by step. Soft-deleted records are
// skipped without output.
func (s *ReferenceableCheckStage) Perform(step int, sink Sink) error {
	if s.snapshot == nil {
		return ErrNotSetUp
	}
	return PerformStep(*s.snapshot, s.records, s.validators, step, sink)
}

// PerformStep runs one step against an explicit snapshot.
func PerformStep(snap Snapshot, records *Collections, validators ValidatorLookup, step int, sink Sink) error {
	kind, local, err := snap.Locate(step)
	if err != nil {
		return err
	}

	container, ok := records.Container(kind)
	if !ok {
		return fmt.Errorf("no container for %s", kind)
	}

	entry := container.Entry(local)
	if entry.IsDeleted() {
		return nil
	}

	validate, ok := validators(kind)
	if !ok {
		return fmt.Errorf("%w: no validator for %s", ErrUnknownKind, kind)
	}

	id := UniversalID{Kind: kind, ID: entry.Record.RecordID()}
	for _, problem := range validate(entry.Record) {
		sink.Append(Diagnostic{ID: id, Problem: problem})
	}
	return nil
}
