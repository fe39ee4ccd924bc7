package kinds

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/refcheck/internal/core"
	"gopkg.in/yaml.v3"
)

func TestAllKindsRegistered(t *testing.T) {
	want := []core.Kind{core.KindBook, core.KindActivator, core.KindPotion, core.KindApparatus}

	defs := core.All()
	if len(defs) != len(want) {
		t.Fatalf("registered %d kinds, want %d", len(defs), len(want))
	}
	for i, def := range defs {
		if def.Kind != want[i] {
			t.Errorf("kind %d = %s, want %s", i, def.Kind, want[i])
		}
		if def.Decode == nil || def.Load == nil {
			t.Errorf("%s is missing a decoder or loader", def.Kind)
		}
	}
}

func TestChecklists(t *testing.T) {
	tests := []struct {
		name string
		kind core.Kind
		rec  core.Record
		want []string
	}{
		{
			name: "book with every problem",
			kind: core.KindBook,
			rec:  &Book{ID: "b", Weight: -1, Value: -1, Enchant: -1},
			want: []string{
				core.ProblemEmptyName, core.ProblemNegativeWeight, core.ProblemNegativeValue,
				core.ProblemNoModel, core.ProblemNoIcon, core.ProblemNegativeEnchant,
			},
		},
		{
			name: "valid book",
			kind: core.KindBook,
			rec:  &Book{ID: "b", Name: "Tome", Model: "m.nif", Icon: "i.tex", Weight: 1, Value: 5},
			want: nil,
		},
		{
			name: "activator only needs a model",
			kind: core.KindActivator,
			rec:  &Activator{ID: "a"},
			want: []string{core.ProblemNoModel},
		},
		{
			name: "activator with a model and no name",
			kind: core.KindActivator,
			rec:  &Activator{ID: "a", Model: "lever.nif"},
			want: nil,
		},
		{
			name: "potion with no effects is fine",
			kind: core.KindPotion,
			rec:  &Potion{ID: "p", Name: "Cure", Model: "p.nif", Icon: "p.tex"},
			want: nil,
		},
		{
			name: "potion negative weight and no icon",
			kind: core.KindPotion,
			rec:  &Potion{ID: "p", Name: "Cure", Model: "p.nif", Weight: -0.5},
			want: []string{core.ProblemNegativeWeight, core.ProblemNoIcon},
		},
		{
			name: "apparatus without name and value below zero",
			kind: core.KindApparatus,
			rec:  &Apparatus{ID: "x", Model: "m.nif", Icon: "i.tex", Value: -3},
			want: []string{core.ProblemEmptyName, core.ProblemNegativeValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := core.Get(tt.kind)
			if !ok {
				t.Fatalf("%s not registered", tt.kind)
			}
			if got := def.Validate(tt.rec); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Validate() = %q, want %q", got, tt.want)
			}
		})
	}
}

// The two-books-one-activator run: three steps, findings on steps 0 and 2.
func TestReferenceableCheck_BooksAndActivator(t *testing.T) {
	books := core.NewCollection()
	books.Append(&Book{ID: "book_0", Name: "", Weight: -1, Model: "m.nif", Icon: "i.tex"}, core.StateModifiedOnly)
	books.Append(&Book{ID: "book_1", Name: "Valid", Weight: 1, Value: 1, Model: "m.nif", Icon: "i.tex"}, core.StateModifiedOnly)

	activators := core.NewCollection()
	activators.Append(&Activator{ID: "act_0", Model: ""}, core.StateModifiedOnly)

	records := core.NewCollections()
	if err := records.Add(core.KindBook, books); err != nil {
		t.Fatal(err)
	}
	if err := records.Add(core.KindActivator, activators); err != nil {
		t.Fatal(err)
	}

	stage := core.NewReferenceableCheckStage(records, nil)
	if n := stage.Setup(); n != 3 {
		t.Fatalf("Setup() = %d, want 3", n)
	}

	want := [][]string{
		{"Book: book_0|book_0 has an empty name", "Book: book_0|book_0 has negative weight"},
		{},
		{"Activator: act_0|act_0 has no model"},
	}
	for step, w := range want {
		log := &core.MessageLog{}
		if err := stage.Perform(step, log); err != nil {
			t.Fatalf("Perform(%d) error = %v", step, err)
		}
		if got := log.Messages(); !reflect.DeepEqual(got, w) {
			t.Errorf("Perform(%d) = %q, want %q", step, got, w)
		}
	}
}

func TestDecodeCollection(t *testing.T) {
	src := `
- id: scroll_1
  name: Scroll of Light
  model: s.nif
  icon: s.tex
  scroll: true
- id: old_book
  weight: -2
  deleted: true
`
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		t.Fatal(err)
	}

	def, _ := core.Get(core.KindBook)
	c, err := def.Decode(node.Decode)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	first := c.Entry(0)
	if b := first.Record.(*Book); !b.IsScroll || b.Name != "Scroll of Light" {
		t.Errorf("first record = %+v", b)
	}
	if first.IsDeleted() {
		t.Error("first record should not be deleted")
	}
	if !c.Entry(1).IsDeleted() {
		t.Error("second record should be deleted")
	}
}

func TestDecodeCollection_MissingID(t *testing.T) {
	tests := []struct {
		name string
		kind core.Kind
		doc  string
	}{
		{"no id", core.KindPotion, "- name: nameless\n"},
		{"null yaml record", core.KindBook, "- ~\n"},
		{"null json record", core.KindPotion, `[null]`},
		{"null after valid record", core.KindApparatus, "- id: a0\n- null\n"},
		{"repeated id", core.KindBook, "- id: b0\n- id: b1\n- id: b0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var node yaml.Node
			if err := yaml.Unmarshal([]byte(tt.doc), &node); err != nil {
				t.Fatal(err)
			}

			def, _ := core.Get(tt.kind)
			if _, err := def.Decode(node.Decode); !errors.Is(err, core.ErrDatasetParse) {
				t.Errorf("Decode() error = %v, want ErrDatasetParse", err)
			}
		})
	}
}
