package kinds

import (
	"context"

	"github.com/JonMunkholm/refcheck/internal/core"
)

func init() {
	registerActivators()
}

// Activator is a purely functional world object (levers, signs, shrines).
type Activator struct {
	ID     string `yaml:"id" json:"id" db:"id"`
	Name   string `yaml:"name" json:"name" db:"name"`
	Model  string `yaml:"model" json:"model" db:"model"`
	Script string `yaml:"script" json:"script" db:"script"`
}

// RecordID implements core.Record.
func (a *Activator) RecordID() string { return a.ID }

type activatorRow struct {
	Activator
	State int16 `db:"state"`
}

func (r activatorRow) record() core.Record     { a := r.Activator; return &a }
func (r activatorRow) state() core.RecordState { return core.RecordState(r.State) }

const selectActivators = `
	SELECT id, name, model, script, state
	FROM activators
	ORDER BY seq`

func registerActivators() {
	core.Register(core.KindDefinition{
		Kind:  core.KindActivator,
		Label: "Activators",
		// Activators are placed in the world, so only the model is mandatory.
		Validate: core.Checklist(
			core.EmptyString(core.ProblemNoModel, func(a *Activator) string { return a.Model }),
		),
		Decode: decodeCollection[*Activator],
		Load: func(ctx context.Context, db core.DBTX) (core.Container, error) {
			return loadCollection[activatorRow](ctx, db, selectActivators)
		},
	})
}
