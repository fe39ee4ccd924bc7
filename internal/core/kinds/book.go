package kinds

import (
	"context"

	"github.com/JonMunkholm/refcheck/internal/core"
)

func init() {
	registerBooks()
}

// Book is a readable item; scrolls are books with IsScroll set.
type Book struct {
	ID       string  `yaml:"id" json:"id" db:"id"`
	Name     string  `yaml:"name" json:"name" db:"name"`
	Model    string  `yaml:"model" json:"model" db:"model"`
	Icon     string  `yaml:"icon" json:"icon" db:"icon"`
	Script   string  `yaml:"script" json:"script" db:"script"`
	Text     string  `yaml:"text" json:"text" db:"text"`
	Weight   float32 `yaml:"weight" json:"weight" db:"weight"`
	Value    int     `yaml:"value" json:"value" db:"value"`
	Enchant  int     `yaml:"enchant" json:"enchant" db:"enchant"`
	IsScroll bool    `yaml:"scroll" json:"scroll" db:"is_scroll"`
	Skill    int     `yaml:"skill" json:"skill" db:"skill"` // Skill taught on reading, -1 for none
}

// RecordID implements core.Record.
func (b *Book) RecordID() string { return b.ID }

type bookRow struct {
	Book
	State int16 `db:"state"`
}

func (r bookRow) record() core.Record     { b := r.Book; return &b }
func (r bookRow) state() core.RecordState { return core.RecordState(r.State) }

const selectBooks = `
	SELECT id, name, model, icon, script, text, weight, value, enchant, is_scroll, skill, state
	FROM books
	ORDER BY seq`

func registerBooks() {
	core.Register(core.KindDefinition{
		Kind:  core.KindBook,
		Label: "Books",
		Validate: core.Checklist(
			core.EmptyString(core.ProblemEmptyName, func(b *Book) string { return b.Name }),
			core.Negative(core.ProblemNegativeWeight, func(b *Book) float32 { return b.Weight }),
			core.Negative(core.ProblemNegativeValue, func(b *Book) int { return b.Value }),
			core.EmptyString(core.ProblemNoModel, func(b *Book) string { return b.Model }),
			core.EmptyString(core.ProblemNoIcon, func(b *Book) string { return b.Icon }),
			core.Negative(core.ProblemNegativeEnchant, func(b *Book) int { return b.Enchant }),
		),
		Decode: decodeCollection[*Book],
		Load: func(ctx context.Context, db core.DBTX) (core.Container, error) {
			return loadCollection[bookRow](ctx, db, selectBooks)
		},
	})
}
