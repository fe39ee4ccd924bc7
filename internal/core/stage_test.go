package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type testRecord struct {
	id     string
	name   string
	weight float32
	model  string
}

func (r testRecord) RecordID() string { return r.id }

var testChecklist = Checklist(
	EmptyString(ProblemEmptyName, func(r testRecord) string { return r.name }),
	Negative(ProblemNegativeWeight, func(r testRecord) float32 { return r.weight }),
	EmptyString(ProblemNoModel, func(r testRecord) string { return r.model }),
)

func testValidators(kind Kind) (ValidateFunc, bool) {
	switch kind {
	case KindBook, KindActivator, KindPotion, KindApparatus:
		return testChecklist, true
	}
	return nil, false
}

func newTestCollections(t *testing.T) *Collections {
	t.Helper()

	books := NewCollection()
	books.Append(testRecord{id: "b0", name: "", weight: -1, model: "m.nif"}, StateModified)
	books.Append(testRecord{id: "b1", name: "Valid", weight: 1, model: "m.nif"}, StateBaseOnly)

	activators := NewCollection()
	activators.Append(testRecord{id: "a0", name: "Lever", model: ""}, StateBaseOnly)

	c := NewCollections()
	if err := c.Add(KindBook, books); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(KindActivator, activators); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestReferenceableCheckStage_PerformBeforeSetup(t *testing.T) {
	stage := NewReferenceableCheckStage(newTestCollections(t), testValidators)

	err := stage.Perform(0, &MessageLog{})
	if !errors.Is(err, ErrNotSetUp) {
		t.Errorf("Perform before Setup error = %v, want ErrNotSetUp", err)
	}
}

func TestReferenceableCheckStage_Steps(t *testing.T) {
	stage := NewReferenceableCheckStage(newTestCollections(t), testValidators)

	if n := stage.Setup(); n != 3 {
		t.Fatalf("Setup() = %d, want 3", n)
	}

	tests := []struct {
		step int
		want []string
	}{
		{step: 0, want: []string{
			"Book: b0|b0 has an empty name",
			"Book: b0|b0 has negative weight",
		}},
		{step: 1, want: []string{}},
		{step: 2, want: []string{"Activator: a0|a0 has no model"}},
	}

	for _, tt := range tests {
		log := &MessageLog{}
		if err := stage.Perform(tt.step, log); err != nil {
			t.Fatalf("Perform(%d) error = %v", tt.step, err)
		}
		if got := log.Messages(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Perform(%d) messages = %q, want %q", tt.step, got, tt.want)
		}
	}
}

func TestReferenceableCheckStage_DeletedRecordsSkipped(t *testing.T) {
	for _, state := range []RecordState{StateDeleted, StateErased} {
		t.Run(state.String(), func(t *testing.T) {
			books := NewCollection()
			books.Append(testRecord{id: "bad", weight: -5}, state)

			c := NewCollections()
			_ = c.Add(KindBook, books)

			stage := NewReferenceableCheckStage(c, testValidators)
			if n := stage.Setup(); n != 1 {
				t.Fatalf("Setup() = %d, want 1 (deleted records still occupy a step)", n)
			}

			log := &MessageLog{}
			if err := stage.Perform(0, log); err != nil {
				t.Fatal(err)
			}
			if log.Len() != 0 {
				t.Errorf("deleted record produced %d messages: %q", log.Len(), log.Messages())
			}
		})
	}
}

func TestReferenceableCheckStage_RepeatedStepRepeatsMessages(t *testing.T) {
	stage := NewReferenceableCheckStage(newTestCollections(t), testValidators)
	stage.Setup()

	log := &MessageLog{}
	_ = stage.Perform(2, log)
	_ = stage.Perform(2, log)

	want := []string{"Activator: a0|a0 has no model", "Activator: a0|a0 has no model"}
	if got := log.Messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("messages = %q, want %q", got, want)
	}
}

func TestReferenceableCheckStage_OutOfRange(t *testing.T) {
	stage := NewReferenceableCheckStage(newTestCollections(t), testValidators)
	n := stage.Setup()

	log := &MessageLog{}
	for _, step := range []int{-1, n, n + 5} {
		if err := stage.Perform(step, log); !errors.Is(err, ErrStepOutOfRange) {
			t.Errorf("Perform(%d) error = %v, want ErrStepOutOfRange", step, err)
		}
	}
	if log.Len() != 0 {
		t.Errorf("out-of-range steps appended %d messages", log.Len())
	}
}

func TestReferenceableCheckStage_MissingValidator(t *testing.T) {
	stage := NewReferenceableCheckStage(newTestCollections(t), func(Kind) (ValidateFunc, bool) { return nil, false })
	stage.Setup()

	if err := stage.Perform(0, &MessageLog{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Perform error = %v, want ErrUnknownKind", err)
	}
}

func TestCollections_AddDuplicateKind(t *testing.T) {
	c := NewCollections()
	if err := c.Add(KindPotion, NewCollection()); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(KindPotion, NewCollection()); !errors.Is(err, ErrDuplicateKind) {
		t.Errorf("second Add error = %v, want ErrDuplicateKind", err)
	}
}

func TestCollection_MarkDeleted(t *testing.T) {
	c := NewCollection()
	c.Append(testRecord{id: "x"}, StateBaseOnly)

	if !c.MarkDeleted("x") {
		t.Fatal("MarkDeleted(x) = false")
	}
	if !c.Entry(0).IsDeleted() {
		t.Error("entry not deleted after MarkDeleted")
	}
	if c.MarkDeleted("missing") {
		t.Error("MarkDeleted(missing) = true")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestRunStages(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		stage := NewReferenceableCheckStage(newTestCollections(t), testValidators)

		var updates []RunProgress
		result := RunStages(context.Background(), []Stage{stage}, &MessageLog{}, RunOptions{
			RunID:         "r1",
			ProgressEvery: 1,
			OnProgress:    func(p RunProgress) { updates = append(updates, p) },
		})

		if result.Phase != PhaseComplete {
			t.Fatalf("Phase = %s, want complete (error %q)", result.Phase, result.Error)
		}
		if result.TotalSteps != 3 || result.StepsDone != 3 {
			t.Errorf("steps = %d/%d, want 3/3", result.StepsDone, result.TotalSteps)
		}
		if len(result.Messages) != 3 {
			t.Errorf("messages = %d, want 3", len(result.Messages))
		}
		last := updates[len(updates)-1]
		if last.Phase != PhaseComplete || last.Percent() != 100 {
			t.Errorf("last update = %+v", last)
		}
	})

	t.Run("cancelled keeps partial messages", func(t *testing.T) {
		stage := NewReferenceableCheckStage(newTestCollections(t), testValidators)
		ctx, cancel := context.WithCancel(context.Background())

		result := RunStages(ctx, []Stage{stage}, &MessageLog{}, RunOptions{
			ProgressEvery: 1,
			OnProgress: func(p RunProgress) {
				if p.StepsDone == 1 {
					cancel()
				}
			},
		})

		if result.Phase != PhaseCancelled {
			t.Fatalf("Phase = %s, want cancelled", result.Phase)
		}
		if result.StepsDone != 1 {
			t.Errorf("StepsDone = %d, want 1", result.StepsDone)
		}
		if len(result.Messages) != 2 {
			t.Errorf("messages = %q, want the two findings of step 0", result.Messages)
		}
	})

	t.Run("contract violation fails the run", func(t *testing.T) {
		result := RunStages(context.Background(), []Stage{badStage{}}, &MessageLog{}, RunOptions{})
		if result.Phase != PhaseFailed {
			t.Fatalf("Phase = %s, want failed", result.Phase)
		}
		if result.Error == "" {
			t.Error("Error is empty")
		}
	})
}

// badStage claims more steps than it can serve.
type badStage struct{}

func (badStage) Name() string { return "bad" }
func (badStage) Setup() int   { return 2 }
func (badStage) Perform(step int, _ Sink) error {
	if step > 0 {
		return ErrStepOutOfRange
	}
	return nil
}

func TestKindAndDiagnosticFormatting(t *testing.T) {
	d := Diagnostic{ID: UniversalID{Kind: KindApparatus, ID: "mortar_01"}, Problem: ProblemNoIcon}
	if got, want := d.String(), "Apparatus: mortar_01|mortar_01 has no icon"; got != want {
		t.Errorf("Diagnostic.String() = %q, want %q", got, want)
	}

	for _, in := range []string{"books", "Book", " BOOKS "} {
		k, err := ParseKind(in)
		if err != nil || k != KindBook {
			t.Errorf("ParseKind(%q) = %v, %v", in, k, err)
		}
	}
	if _, err := ParseKind("armor"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(armor) error = %v, want ErrUnknownKind", err)
	}
	if KindApparatus.Key() != "apparati" {
		t.Errorf("Key() = %q", KindApparatus.Key())
	}
}
