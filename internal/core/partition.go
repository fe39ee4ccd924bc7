package core

// partition.go maps a global step index onto (kind, local index).
//
// A check run visits every record of every container exactly once, in
// container order and then index order. Instead of keeping a cursor, each
// step re-derives its target from the sizes captured at setup, so steps stay
// self-contained and can be driven at any cadence or abandoned at any point.

import (
	"errors"
	"fmt"
)

// ErrStepOutOfRange is returned when a step index falls outside [0, N).
// It means the host loop bounds are wrong.
var ErrStepOutOfRange = errors.New("step index out of range")

// Snapshot is the per-kind record counts captured at setup.
// It is immutable once created.
type Snapshot struct {
	kinds []Kind
	sizes []int
	total int
}

// TakeSnapshot captures the current sizes of all containers in c.
func TakeSnapshot(c *Collections) Snapshot {
	kinds := c.Kinds()
	sizes := make([]int, len(kinds))
	total := 0
	for i, k := range kinds {
		sizes[i] = c.Size(k)
		total += sizes[i]
	}
	return Snapshot{kinds: kinds, sizes: sizes, total: total}
}

// NewSnapshot builds a snapshot from explicit sizes. kinds and sizes must
// have the same length.
func NewSnapshot(kinds []Kind, sizes []int) Snapshot {
	if len(kinds) != len(sizes) {
		panic(fmt.Sprintf("snapshot: %d kinds but %d sizes", len(kinds), len(sizes)))
	}
	s := Snapshot{
		kinds: append([]Kind(nil), kinds...),
		sizes: append([]int(nil), sizes...),
	}
	for _, n := range sizes {
		s.total += n
	}
	return s
}

// Total returns N, the number of steps in a run.
func (s Snapshot) Total() int {
	return s.total
}

// Size returns the captured size for kind.
func (s Snapshot) Size(kind Kind) int {
	for i, k := range s.kinds {
		if k == kind {
			return s.sizes[i]
		}
	}
	return 0
}

// Locate resolves step to the kind and the index within that kind's container.
// Zero-size containers are passed over by the subtraction.
func (s Snapshot) Locate(step int) (Kind, int, error) {
	if step < 0 || step >= s.total {
		return 0, 0, fmt.Errorf("%w: %d not in [0, %d)", ErrStepOutOfRange, step, s.total)
	}

	remaining := step
	for i, size := range s.sizes {
		if remaining < size {
			return s.kinds[i], remaining, nil
		}
		remaining -= size
	}

	// Unreachable while total equals the sum of sizes.
	return 0, 0, fmt.Errorf("%w: %d", ErrStepOutOfRange, step)
}
