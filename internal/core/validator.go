package core

// validator.go provides the per-kind checklist building blocks.
//
// A checklist is a fixed list of independent predicates over one record
// type. Every check runs on every record; one record can produce several
// findings in a single pass.

import "fmt"

// Common problem phrases shared by several kinds.
const (
	ProblemEmptyName       = "has an empty name"
	ProblemNegativeWeight  = "has negative weight"
	ProblemNegativeValue   = "has negative value"
	ProblemNoModel         = "has no model"
	ProblemNoIcon          = "has no icon"
	ProblemNegativeEnchant = "has negative enchantment"
)

// ValidateFunc inspects one record and returns its problems in checklist order.
// It must be pure.
type ValidateFunc func(rec Record) []string

// ValidatorLookup resolves the validator for a kind.
type ValidatorLookup func(kind Kind) (ValidateFunc, bool)

// Check is one predicate of a checklist.
type Check[T Record] struct {
	Problem string
	Failed  func(rec T) bool
}

// Checklist builds a ValidateFunc for records of type T.
// Panics if handed a record of another type, since that means the kind was
// wired to the wrong container.
func Checklist[T Record](checks ...Check[T]) ValidateFunc {
	return func(rec Record) []string {
		typed, ok := rec.(T)
		if !ok {
			panic(fmt.Sprintf("checklist: got %T", rec))
		}

		var problems []string
		for _, c := range checks {
			if c.Failed(typed) {
				problems = append(problems, c.Problem)
			}
		}
		return problems
	}
}

// EmptyString returns a check that fails when field(rec) is empty.
func EmptyString[T Record](problem string, field func(T) string) Check[T] {
	return Check[T]{
		Problem: problem,
		Failed:  func(rec T) bool { return field(rec) == "" },
	}
}

// Negative returns a check that fails when field(rec) is below zero.
func Negative[T Record, N ~int | ~int32 | ~int64 | ~float32 | ~float64](problem string, field func(T) N) Check[T] {
	return Check[T]{
		Problem: problem,
		Failed:  func(rec T) bool { return field(rec) < 0 },
	}
}
