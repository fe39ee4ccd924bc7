package kinds

import (
	"context"

	"github.com/JonMunkholm/refcheck/internal/core"
)

func init() {
	registerApparati()
}

// Apparatus is an alchemy tool.
type Apparatus struct {
	ID      string  `yaml:"id" json:"id" db:"id"`
	Name    string  `yaml:"name" json:"name" db:"name"`
	Model   string  `yaml:"model" json:"model" db:"model"`
	Icon    string  `yaml:"icon" json:"icon" db:"icon"`
	Script  string  `yaml:"script" json:"script" db:"script"`
	Type    string  `yaml:"type" json:"type" db:"type"` // mortar_pestle, alembic, calcinator, retort
	Quality float32 `yaml:"quality" json:"quality" db:"quality"`
	Weight  float32 `yaml:"weight" json:"weight" db:"weight"`
	Value   int     `yaml:"value" json:"value" db:"value"`
}

// RecordID implements core.Record.
func (a *Apparatus) RecordID() string { return a.ID }

type apparatusRow struct {
	Apparatus
	State int16 `db:"state"`
}

func (r apparatusRow) record() core.Record     { a := r.Apparatus; return &a }
func (r apparatusRow) state() core.RecordState { return core.RecordState(r.State) }

const selectApparati = `
	SELECT id, name, model, icon, script, type, quality, weight, value, state
	FROM apparati
	ORDER BY seq`

func registerApparati() {
	core.Register(core.KindDefinition{
		Kind:  core.KindApparatus,
		Label: "Apparatus",
		Validate: core.Checklist(
			core.EmptyString(core.ProblemEmptyName, func(a *Apparatus) string { return a.Name }),
			core.Negative(core.ProblemNegativeWeight, func(a *Apparatus) float32 { return a.Weight }),
			core.Negative(core.ProblemNegativeValue, func(a *Apparatus) int { return a.Value }),
			core.EmptyString(core.ProblemNoModel, func(a *Apparatus) string { return a.Model }),
			core.EmptyString(core.ProblemNoIcon, func(a *Apparatus) string { return a.Icon }),
		),
		Decode: decodeCollection[*Apparatus],
		Load: func(ctx context.Context, db core.DBTX) (core.Container, error) {
			return loadCollection[apparatusRow](ctx, db, selectApparati)
		},
	})
}
