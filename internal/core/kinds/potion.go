package kinds

import (
	"context"

	"github.com/JonMunkholm/refcheck/internal/core"
)

func init() {
	registerPotions()
}

// Effect is one magic effect of a potion.
type Effect struct {
	EffectID  int `yaml:"effect" json:"effect"`
	Skill     int `yaml:"skill" json:"skill"`
	Attribute int `yaml:"attribute" json:"attribute"`
	Duration  int `yaml:"duration" json:"duration"`
	Magnitude int `yaml:"magnitude" json:"magnitude"`
}

// Potion is a consumable alchemy product.
type Potion struct {
	ID       string   `yaml:"id" json:"id" db:"id"`
	Name     string   `yaml:"name" json:"name" db:"name"`
	Model    string   `yaml:"model" json:"model" db:"model"`
	Icon     string   `yaml:"icon" json:"icon" db:"icon"`
	Script   string   `yaml:"script" json:"script" db:"script"`
	Weight   float32  `yaml:"weight" json:"weight" db:"weight"`
	Value    int      `yaml:"value" json:"value" db:"value"`
	AutoCalc bool     `yaml:"autocalc" json:"autocalc" db:"auto_calc"`
	Effects  []Effect `yaml:"effects" json:"effects" db:"effects"`
}

// RecordID implements core.Record.
func (p *Potion) RecordID() string { return p.ID }

type potionRow struct {
	Potion
	State int16 `db:"state"`
}

func (r potionRow) record() core.Record     { p := r.Potion; return &p }
func (r potionRow) state() core.RecordState { return core.RecordState(r.State) }

const selectPotions = `
	SELECT id, name, model, icon, script, weight, value, auto_calc, effects, state
	FROM potions
	ORDER BY seq`

func registerPotions() {
	core.Register(core.KindDefinition{
		Kind:  core.KindPotion,
		Label: "Potions",
		// An empty effect list is valid.
		Validate: core.Checklist(
			core.EmptyString(core.ProblemEmptyName, func(p *Potion) string { return p.Name }),
			core.Negative(core.ProblemNegativeWeight, func(p *Potion) float32 { return p.Weight }),
			core.Negative(core.ProblemNegativeValue, func(p *Potion) int { return p.Value }),
			core.EmptyString(core.ProblemNoModel, func(p *Potion) string { return p.Model }),
			core.EmptyString(core.ProblemNoIcon, func(p *Potion) string { return p.Icon }),
		),
		Decode: decodeCollection[*Potion],
		Load: func(ctx context.Context, db core.DBTX) (core.Container, error) {
			return loadCollection[potionRow](ctx, db, selectPotions)
		},
	})
}
