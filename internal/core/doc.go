// Package core provides the referenceable record check.
//
// The package audits collections of game-content records (books,
// activators, potions, apparatus, ...) for data-integrity problems. It has
// no UI or storage dependencies beyond the DBTX interface and can be driven
// by the web server, the CLI, or tests.
//
// # Kinds
//
// Each record kind is registered at init time using [Register]. A
// [KindDefinition] carries the kind's checklist and, optionally, how to
// decode it from a dataset file and load it from Postgres:
//
//	core.Register(core.KindDefinition{
//	    Kind: core.KindActivator,
//	    Validate: core.Checklist(
//	        core.EmptyString(core.ProblemNoModel, func(a *Activator) string { return a.Model }),
//	    ),
//	})
//
// # Steps
//
// A check run is a flat sequence of steps, one per record. [Stage.Setup]
// captures a [Snapshot] of container sizes and returns the step count N.
// [Stage.Perform] resolves a step to (kind, local index) from that snapshot,
// skips soft-deleted records and appends the validator's findings to a
// [Sink]. Steps keep no cursor state, so the host decides the cadence and
// may stop after any prefix.
//
// Containers must not change between Setup and the last Perform of a run.
// The snapshot is not refreshed; mutations during a run can make steps read
// the wrong records.
//
// # Runs
//
// [RunStages] is the host loop. [Service] wraps it with background
// execution, progress subscription, cancellation, a concurrency limit and
// result storage. Errors are mapped to user-facing codes by [MapError].
package core
