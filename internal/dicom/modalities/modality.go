// Package modalities maps DICOM headers to BIDS modality folders and carries
// the MR sequence presets used to synthesize test series.
package modalities

import (
	"strings"

	"github.com/mrsinham/dicombids/internal/dicom"
)

// Modality represents a DICOM imaging modality type.
type Modality string

const (
	MR Modality = "MR" // Magnetic Resonance
	CT Modality = "CT" // Computed Tomography
)

// Folder is a BIDS modality folder.
type Folder string

const (
	Anat Folder = "anat"
	Func Folder = "func"
	DWI  Folder = "dwi"
)

// AllFolders returns the folders the classifier can produce.
func AllFolders() []Folder {
	return []Folder{Anat, Func, DWI}
}

// Classification is the BIDS placement of one acquisition.
type Classification struct {
	Folder Folder
	Suffix string
}

func (c Classification) String() string {
	return string(c.Folder) + "/" + c.Suffix
}

// Default is returned for anything the rules do not recognize.
var Default = Classification{Folder: Anat, Suffix: "T1w"}

// Fields is the subset of header fields the classifier reads.
type Fields struct {
	Modality          string
	SeriesDescription string
	ImageType         string
}

// FieldsFromHeader extracts the classifier inputs from a header.
func FieldsFromHeader(h dicom.Header) Fields {
	return Fields{
		Modality:          h.Modality(),
		SeriesDescription: h.SeriesDescription(),
		ImageType:         h.ImageType(),
	}
}

// Classify returns the BIDS folder and suffix for a header.
func Classify(h dicom.Header) Classification {
	return ClassifyFields(FieldsFromHeader(h))
}

// ClassifyFields applies the rules in order; the first rule with a matching
// keyword wins. Only MR acquisitions are inspected. ImageType is carried for
// callers but does not take part in the decision.
func ClassifyFields(f Fields) (c Classification) {
	defer func() {
		if recover() != nil {
			c = Default
		}
	}()

	if Modality(strings.ToUpper(strings.TrimSpace(f.Modality))) != MR {
		return Default
	}

	description := strings.ToLower(f.SeriesDescription)
	for _, r := range rules {
		if r.matches(description) {
			return r.Classification
		}
	}
	return Default
}
