package edgecases

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
)

// Applicator applies edge cases to generated datasets.
type Applicator struct {
	config Config
	rng    *rand.Rand
	now    func() time.Time
}

// NewApplicator creates a new edge case applicator.
func NewApplicator(config Config, rng *rand.Rand) *Applicator {
	return &Applicator{config: config, rng: rng, now: time.Now}
}

// ShouldApply returns true if an edge case should apply to the next file.
func (a *Applicator) ShouldApply() bool {
	return a.config.IsEnabled() && a.rng.IntN(100) < a.config.Percentage
}

// Select picks one of the enabled kinds.
func (a *Applicator) Select() Kind {
	return a.config.Kinds[a.rng.IntN(len(a.config.Kinds))]
}

// Apply rolls for an edge case and, when one is drawn, rewrites ds
// accordingly. sex drives the generated names. It returns the applied kind,
// or "" when the file is left alone.
func (a *Applicator) Apply(ds *dicom.Dataset, sex string) (Kind, error) {
	if !a.ShouldApply() {
		return "", nil
	}
	kind := a.Select()
	if err := a.apply(ds, kind, sex); err != nil {
		return "", fmt.Errorf("apply %s: %w", kind, err)
	}
	return kind, nil
}

func (a *Applicator) apply(ds *dicom.Dataset, kind Kind, sex string) error {
	switch kind {
	case SpecialChars:
		return dcm.SetString(ds, tag.PatientName, SpecialCharName(sex, a.rng))
	case LongNames:
		if err := dcm.SetString(ds, tag.PatientName, LongPatientName(a.rng)); err != nil {
			return err
		}
		return dcm.SetString(ds, tag.PatientID, LongPatientID(a.rng))
	case VariedIDs:
		return dcm.SetString(ds, tag.PatientID, VariedPatientID(a.rng))
	case OldDates:
		birth := OldBirthDate(a.rng)
		if a.rng.IntN(2) == 0 {
			birth = PartialDate(a.rng)
		}
		if err := dcm.SetString(ds, tag.PatientBirthDate, birth); err != nil {
			return err
		}
		if a.rng.IntN(4) == 0 {
			return dcm.SetString(ds, tag.StudyDate, FutureStudyDate(a.now(), a.rng))
		}
		return nil
	case MissingTags:
		dcm.Remove(ds, SelectTagsToOmit(a.rng, 1+a.rng.IntN(3))...)
		return nil
	case NestedNames:
		dcm.Insert(ds, RequestAttributes(a.rng))
		return nil
	default:
		return fmt.Errorf("unknown edge case %q", kind)
	}
}
