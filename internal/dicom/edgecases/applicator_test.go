package edgecases

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
)

func baseDataset() *dicom.Dataset {
	return &dicom.Dataset{Elements: []*dicom.Element{
		dcm.MustNewElement(tag.StudyDate, []string{"20240101"}),
		dcm.MustNewElement(tag.AccessionNumber, []string{"ACC1"}),
		dcm.MustNewElement(tag.Modality, []string{"MR"}),
		dcm.MustNewElement(tag.InstitutionName, []string{"General Hospital"}),
		dcm.MustNewElement(tag.ReferringPhysicianName, []string{"HOUSE^GREGORY"}),
		dcm.MustNewElement(tag.StationName, []string{"MR01"}),
		dcm.MustNewElement(tag.StudyDescription, []string{"BRAIN"}),
		dcm.MustNewElement(tag.SeriesDescription, []string{"t1_mprage"}),
		dcm.MustNewElement(tag.PerformingPhysicianName, []string{"WILSON^JAMES"}),
		dcm.MustNewElement(tag.OperatorsName, []string{"CUDDY^LISA"}),
		dcm.MustNewElement(tag.PatientName, []string{"SMITH^JOHN"}),
		dcm.MustNewElement(tag.PatientID, []string{"PID123456"}),
		dcm.MustNewElement(tag.PatientBirthDate, []string{"19800101"}),
		dcm.MustNewElement(tag.BodyPartExamined, []string{"HEAD"}),
	}}
}

func TestApplicator_ShouldApply(t *testing.T) {
	app := NewApplicator(Config{Percentage: 50, Kinds: []Kind{SpecialChars}}, rand.New(rand.NewPCG(42, 42)))

	applied := 0
	for i := 0; i < 100; i++ {
		if app.ShouldApply() {
			applied++
		}
	}
	if applied < 30 || applied > 70 {
		t.Errorf("50%% should apply ~50 times in 100, got %d", applied)
	}

	disabled := NewApplicator(Config{}, rand.New(rand.NewPCG(42, 42)))
	if disabled.ShouldApply() {
		t.Error("disabled config should never apply")
	}
}

func TestApplicator_Apply(t *testing.T) {
	tests := []struct {
		kind  Kind
		check func(t *testing.T, h dcm.Header)
	}{
		{SpecialChars, func(t *testing.T, h dcm.Header) {
			if h.String(tag.PatientName) == "SMITH^JOHN" {
				t.Error("name should change")
			}
		}},
		{LongNames, func(t *testing.T, h dcm.Header) {
			if len(h.String(tag.PatientID)) != MaxLOLength {
				t.Errorf("PatientID = %q, want %d characters", h.String(tag.PatientID), MaxLOLength)
			}
		}},
		{VariedIDs, func(t *testing.T, h dcm.Header) {
			if h.String(tag.PatientID) == "PID123456" {
				t.Error("ID should change")
			}
		}},
		{OldDates, func(t *testing.T, h dcm.Header) {
			if h.String(tag.PatientBirthDate) == "19800101" {
				t.Error("birth date should change")
			}
		}},
		{MissingTags, func(t *testing.T, h dcm.Header) {
			missing := 0
			for _, tg := range OptionalTags {
				if !h.Has(tg) {
					missing++
				}
			}
			if missing < 1 || missing > 3 {
				t.Errorf("expected 1-3 omitted tags, got %d", missing)
			}
			if !h.Has(tag.SeriesDescription) {
				t.Error("SeriesDescription must be kept")
			}
		}},
		{NestedNames, func(t *testing.T, h dcm.Header) {
			if !h.Has(tag.RequestAttributesSequence) {
				t.Error("expected a request attributes sequence")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			app := NewApplicator(Config{Percentage: 100, Kinds: []Kind{tt.kind}}, rand.New(rand.NewPCG(7, 7)))
			app.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
			ds := baseDataset()

			kind, err := app.Apply(ds, "M")
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if kind != tt.kind {
				t.Errorf("Apply() kind = %q, want %q", kind, tt.kind)
			}
			tt.check(t, dcm.NewHeader(ds))
		})
	}
}

func TestApplicator_ApplyNotDrawn(t *testing.T) {
	app := NewApplicator(Config{Percentage: 0, Kinds: []Kind{SpecialChars}}, rand.New(rand.NewPCG(42, 42)))
	ds := baseDataset()
	kind, err := app.Apply(ds, "F")
	if err != nil || kind != "" {
		t.Errorf("Apply() = %q, %v, want no edge case", kind, err)
	}
	if dcm.NewHeader(ds).String(tag.PatientName) != "SMITH^JOHN" {
		t.Error("dataset should be untouched")
	}
}

func TestRequestAttributesNestsAName(t *testing.T) {
	elem := RequestAttributes(rand.New(rand.NewPCG(1, 1)))
	items, ok := elem.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected sequence value %v", elem.Value)
	}
	found := false
	for _, e := range items[0].GetValue().([]*dicom.Element) {
		if e.Tag == tag.RequestingPhysician {
			found = true
		}
	}
	if !found {
		t.Error("nested item should carry RequestingPhysician")
	}
}
