package privatetags

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"

	"github.com/mrsinham/dicombids/internal/dicom/modalities"
)

// Acquisition carries the series values echoed in vendor headers.
type Acquisition struct {
	Manufacturer string
	Sequence     modalities.Sequence
}

// bValue is the diffusion weighting written for diffusion presets.
func (a Acquisition) bValue() int {
	if a.Sequence.Expected.Folder == modalities.DWI {
		return 1000
	}
	return 0
}

// Applicator generates the private elements of the configured kinds.
type Applicator struct {
	config Config
	rng    *rand.Rand
}

// NewApplicator creates a new applicator.
func NewApplicator(config Config, rng *rand.Rand) *Applicator {
	return &Applicator{config: config, rng: rng}
}

// Elements returns the private elements for one image. Only the block of the
// acquisition's manufacturer is emitted, when that kind is enabled.
func (a *Applicator) Elements(acq Acquisition) []*dicom.Element {
	var elements []*dicom.Element

	kind, ok := ForManufacturer(acq.Manufacturer)
	if ok && a.config.Has(kind) {
		switch kind {
		case SiemensCSA:
			elements = append(elements, siemensCSAElements(acq, a.rng)...)
		case GEPrivate:
			elements = append(elements, gePrivateElements(acq, a.rng)...)
		case PhilipsPrivate:
			elements = append(elements, philipsPrivateElements(a.rng)...)
		}
	}
	if a.config.Has(MalformedLengths) {
		elements = append(elements, malformedPlaceholders()...)
	}

	return elements
}

// HasMalformedLengths returns true if written files must be patched with
// PatchMalformedLengths.
func (a *Applicator) HasMalformedLengths() bool {
	return a.config.Has(MalformedLengths)
}
