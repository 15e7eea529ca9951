package modalities

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
)

// MRImageStorage is the MR Image Storage SOP Class UID.
const MRImageStorage = "1.2.840.10008.5.1.4.1.1.4"

// Scanner represents an imaging device configuration.
type Scanner struct {
	Manufacturer  string
	Model         string
	FieldStrength float64 // Tesla
}

// Scanners returns the MR scanner configurations used for synthetic series.
func Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "SIEMENS", Model: "Skyra", FieldStrength: 3.0},
		{Manufacturer: "SIEMENS", Model: "Avanto", FieldStrength: 1.5},
		{Manufacturer: "GE MEDICAL SYSTEMS", Model: "Discovery MR750", FieldStrength: 3.0},
		{Manufacturer: "PHILIPS", Model: "Ingenia", FieldStrength: 3.0},
	}
}

// Sequence is an MR acquisition preset. Expected is the classification the
// preset's series description must produce.
type Sequence struct {
	Name              string
	SeriesDescription string
	ProtocolName      string
	SequenceName      string
	ImageType         []string
	EchoTime          float64 // ms
	RepetitionTime    float64 // ms
	FlipAngle         float64 // degrees
	Frames            int     // frames stored in one file
	Expected          Classification
}

var sequences = []Sequence{
	{
		Name: "t1", SeriesDescription: "t1_mprage_sag_iso", ProtocolName: "T1 MPRAGE",
		SequenceName: "*tfl3d1_16ns", ImageType: []string{"ORIGINAL", "PRIMARY", "M", "ND", "NORM"},
		EchoTime: 2.98, RepetitionTime: 2300, FlipAngle: 9, Frames: 1,
		Expected: Classification{Folder: Anat, Suffix: "T1w"},
	},
	{
		Name: "t2", SeriesDescription: "t2_tse_tra", ProtocolName: "T2 TSE",
		SequenceName: "*tse2d1_15", ImageType: []string{"ORIGINAL", "PRIMARY", "M", "NORM"},
		EchoTime: 96, RepetitionTime: 5000, FlipAngle: 150, Frames: 1,
		Expected: Classification{Folder: Anat, Suffix: "T2w"},
	},
	{
		Name: "flair", SeriesDescription: "flair_dark_fluid_tra", ProtocolName: "FLAIR",
		SequenceName: "*tir2d1_13", ImageType: []string{"ORIGINAL", "PRIMARY", "M", "NORM"},
		EchoTime: 81, RepetitionTime: 9000, FlipAngle: 150, Frames: 1,
		Expected: Classification{Folder: Anat, Suffix: "FLAIR"},
	},
	{
		Name: "bold", SeriesDescription: "ep2d_bold_resting_state", ProtocolName: "rs-fMRI",
		SequenceName: "*epfid2d1_64", ImageType: []string{"ORIGINAL", "PRIMARY", "M", "MOSAIC"},
		EchoTime: 30, RepetitionTime: 2000, FlipAngle: 78, Frames: 4,
		Expected: Classification{Folder: Func, Suffix: "task-rest_bold"},
	},
	{
		Name: "dwi", SeriesDescription: "ep2d_diff_mddw_30", ProtocolName: "DTI 30 directions",
		SequenceName: "*ep_b1000#1", ImageType: []string{"ORIGINAL", "PRIMARY", "DIFFUSION", "NONE"},
		EchoTime: 95, RepetitionTime: 8800, FlipAngle: 90, Frames: 2,
		Expected: Classification{Folder: DWI, Suffix: "dwi"},
	},
	{
		Name: "localizer", SeriesDescription: "AAHead_Scout", ProtocolName: "Scout",
		SequenceName: "*fl3d1_ns", ImageType: []string{"ORIGINAL", "PRIMARY", "M", "ND"},
		EchoTime: 1.37, RepetitionTime: 3.15, FlipAngle: 8, Frames: 1,
		Expected: Default,
	},
}

// AllSequences returns every preset.
func AllSequences() []Sequence {
	out := make([]Sequence, len(sequences))
	copy(out, sequences)
	return out
}

// SequenceNames returns the preset names.
func SequenceNames() []string {
	names := make([]string, len(sequences))
	for i, s := range sequences {
		names[i] = s.Name
	}
	return names
}

// ParseSequences parses comma-separated preset names. "all" selects every preset.
func ParseSequences(input string) ([]Sequence, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	byName := make(map[string]Sequence, len(sequences))
	for _, s := range sequences {
		byName[s.Name] = s
	}

	parts := strings.Split(input, ",")
	result := make([]Sequence, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "all" {
			return AllSequences(), nil
		}
		s, ok := byName[p]
		if !ok {
			return nil, fmt.Errorf("unknown sequence %q, valid sequences: %v (or 'all')", p, SequenceNames())
		}
		result = append(result, s)
	}
	return result, nil
}

// PixelConfig holds pixel data configuration for synthetic MR images.
type PixelConfig struct {
	BitsAllocated uint16
	BitsStored    uint16
	HighBit       uint16
	MaxValue      int
	BaseValue     int
}

// MRPixelConfig is the 12-bit unsigned layout MR scanners commonly store.
var MRPixelConfig = PixelConfig{
	BitsAllocated: 16,
	BitsStored:    12,
	HighBit:       11,
	MaxValue:      4095,
	BaseValue:     2048,
}

// AppendElements appends the acquisition elements of s to ds. Small random
// jitter keeps repeated series of the same preset distinguishable.
func (s Sequence) AppendElements(ds *dicom.Dataset, scanner Scanner, rng *rand.Rand) {
	jitter := func(v float64) float64 { return v * (0.98 + rng.Float64()*0.04) }

	ds.Elements = append(ds.Elements,
		dcm.MustNewElement(tag.ImageType, s.ImageType),
		dcm.MustNewElement(tag.Modality, []string{string(MR)}),
		dcm.MustNewElement(tag.SOPClassUID, []string{MRImageStorage}),
		dcm.MustNewElement(tag.SeriesDescription, []string{s.SeriesDescription}),
		dcm.MustNewElement(tag.ProtocolName, []string{s.ProtocolName}),
		dcm.MustNewElement(tag.SequenceName, []string{s.SequenceName}),
		dcm.MustNewElement(tag.Manufacturer, []string{scanner.Manufacturer}),
		dcm.MustNewElement(tag.ManufacturerModelName, []string{scanner.Model}),
		dcm.MustNewElement(tag.MagneticFieldStrength, []string{decimalString(scanner.FieldStrength)}),
		dcm.MustNewElement(tag.ImagingFrequency, []string{decimalString(scanner.FieldStrength * 42.58)}),
		dcm.MustNewElement(tag.EchoTime, []string{decimalString(jitter(s.EchoTime))}),
		dcm.MustNewElement(tag.RepetitionTime, []string{decimalString(jitter(s.RepetitionTime))}),
		dcm.MustNewElement(tag.FlipAngle, []string{decimalString(s.FlipAngle)}),
	)
}

// decimalString formats a float as a DICOM decimal string.
func decimalString(f float64) string {
	return fmt.Sprintf("%.6g", f)
}
