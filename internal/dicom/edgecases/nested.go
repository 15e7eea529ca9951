package edgecases

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/util"
)

// RequestAttributes returns a (0040,0275) sequence whose item names the
// requesting physician. Names hidden inside sequences are the ones a flat
// de-identification pass misses.
func RequestAttributes(rng *rand.Rand) *dicom.Element {
	item := []*dicom.Element{
		dcm.MustNewElement(tag.RequestedProcedureDescription, []string{"MRI BRAIN RESEARCH PROTOCOL"}),
		dcm.MustNewElement(tag.RequestingPhysician, []string{util.PhysicianName(rng)}),
	}
	return dcm.MustNewElement(tag.RequestAttributesSequence, [][]*dicom.Element{item})
}
