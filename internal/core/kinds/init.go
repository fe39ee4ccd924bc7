// Package kinds registers every referenceable record kind with the core
// registry. Import this package to ensure all kinds are registered.
//
// Each kind lives in its own file and registers itself from init(): the
// record type, its checklist, its dataset decoder and its Postgres loader.
package kinds

import (
	"context"
	"fmt"
	"reflect"

	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/jackc/pgx/v5"
)

// datasetState is the per-record state carried in dataset files.
type datasetState struct {
	Deleted bool `yaml:"deleted" json:"deleted"`
}

// decodeCollection decodes a dataset section into a collection of T.
// The section is decoded twice: once into the records and once for the
// deleted flags, which are not part of the record payload.
func decodeCollection[T core.Record](decode func(v any) error) (core.Container, error) {
	var records []T
	if err := decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDatasetParse, err)
	}

	var states []datasetState
	if err := decode(&states); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDatasetParse, err)
	}

	c := core.NewCollection()
	for i, rec := range records {
		if isNil(rec) {
			return nil, fmt.Errorf("%w: record %d is null", core.ErrDatasetParse, i)
		}
		id := rec.RecordID()
		if id == "" {
			return nil, fmt.Errorf("%w: record %d has no id", core.ErrDatasetParse, i)
		}
		if c.Find(id) >= 0 {
			return nil, fmt.Errorf("%w: record %d repeats id %q", core.ErrDatasetParse, i, id)
		}
		state := core.StateModifiedOnly
		if i < len(states) && states[i].Deleted {
			state = core.StateDeleted
		}
		c.Append(rec, state)
	}
	return c, nil
}

// isNil reports whether rec is a nil pointer, which a null list element
// decodes to.
func isNil(rec core.Record) bool {
	v := reflect.ValueOf(rec)
	return !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil())
}

// stateful is a database row that carries a record plus its state column.
type stateful interface {
	record() core.Record
	state() core.RecordState
}

// loadCollection runs query and collects the rows into a collection, in
// the query's order.
func loadCollection[R stateful](ctx context.Context, db core.DBTX, query string) (core.Container, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[R])
	if err != nil {
		return nil, err
	}

	c := core.NewCollection()
	for _, it := range items {
		c.Append(it.record(), it.state())
	}
	return c, nil
}
