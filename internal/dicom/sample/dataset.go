package sample

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/big"
	"math/rand/v2"
	"sort"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/dicom/modalities"
	"github.com/mrsinham/dicombids/internal/util"
)

// ExplicitVRLittleEndian is the transfer syntax of every generated file.
const ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

var institutions = []string{
	"Hôpital Universitaire de Genève",
	"St. Mary's Research Hospital",
	"Karolinska Universitetssjukhuset",
	"Northside Imaging Center",
}

// Patient holds the identifying fields written into a series.
type Patient struct {
	ID        string
	Name      string
	Sex       string
	BirthDate string
	Age       int
}

// NewPatient draws a patient with a realistic name, an ID and a birth date
// between 1950 and 2004.
func NewPatient(rng *rand.Rand) Patient {
	sex := "M"
	if rng.IntN(2) == 0 {
		sex = "F"
	}
	year := 1950 + rng.IntN(55)
	return Patient{
		ID:        fmt.Sprintf("PID%06d", rng.IntN(1000000)),
		Name:      util.PersonName(sex, rng),
		Sex:       sex,
		BirthDate: fmt.Sprintf("%04d%02d%02d", year, 1+rng.IntN(12), 1+rng.IntN(28)),
		Age:       2024 - year,
	}
}

// SeriesSpec describes one synthetic MR file.
type SeriesSpec struct {
	Patient      Patient
	Sequence     modalities.Sequence
	Scanner      modalities.Scanner
	Width        int
	Height       int
	SeriesNumber int
	StudyUID     string
	SeriesUID    string
	SOPUID       string
	// Overlay is burned into every frame; empty disables it.
	Overlay string
	// Seed drives the pixel noise.
	Seed uint64
}

// UID derives a stable "2.25." UID from key.
func UID(key string) string {
	h := fnv.New128a()
	_, _ = h.Write([]byte(key))
	return "2.25." + new(big.Int).SetBytes(h.Sum(nil)).String()
}

// BuildDataset assembles the full dataset of spec, pixel data included.
// Elements are in ascending tag order.
func BuildDataset(spec SeriesSpec, rng *rand.Rand) (*dicom.Dataset, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", spec.Width, spec.Height)
	}
	frames := max(spec.Sequence.Frames, 1)
	cfg := modalities.MRPixelConfig

	studyUID := orDefault(spec.StudyUID, UID(spec.Patient.ID+"/study"))
	seriesUID := orDefault(spec.SeriesUID, UID(fmt.Sprintf("%s/series/%d", studyUID, spec.SeriesNumber)))
	sopUID := orDefault(spec.SOPUID, UID(seriesUID+"/1"))

	referring := util.PhysicianName(rng)
	performing := util.PhysicianName(rng)
	operator := util.PersonName("M", rng)

	ds := &dicom.Dataset{Elements: []*dicom.Element{
		dcm.MustNewElement(tag.MediaStorageSOPClassUID, []string{modalities.MRImageStorage}),
		dcm.MustNewElement(tag.MediaStorageSOPInstanceUID, []string{sopUID}),
		dcm.MustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
		dcm.MustNewElement(tag.PatientName, []string{spec.Patient.Name}),
		dcm.MustNewElement(tag.PatientID, []string{spec.Patient.ID}),
		dcm.MustNewElement(tag.PatientBirthDate, []string{spec.Patient.BirthDate}),
		dcm.MustNewElement(tag.PatientSex, []string{spec.Patient.Sex}),
		dcm.MustNewElement(tag.PatientAge, []string{fmt.Sprintf("%03dY", spec.Patient.Age)}),
		dcm.MustNewElement(tag.StudyInstanceUID, []string{studyUID}),
		dcm.MustNewElement(tag.StudyID, []string{fmt.Sprintf("STD%04d", rng.IntN(10000))}),
		dcm.MustNewElement(tag.StudyDate, []string{"20240315"}),
		dcm.MustNewElement(tag.StudyTime, []string{fmt.Sprintf("%02d%02d00", 8+rng.IntN(10), rng.IntN(60))}),
		dcm.MustNewElement(tag.StudyDescription, []string{"MRI BRAIN RESEARCH"}),
		dcm.MustNewElement(tag.AccessionNumber, []string{fmt.Sprintf("ACC%08d", rng.IntN(100000000))}),
		dcm.MustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
		dcm.MustNewElement(tag.SeriesNumber, []string{fmt.Sprint(spec.SeriesNumber)}),
		dcm.MustNewElement(tag.SOPInstanceUID, []string{sopUID}),
		dcm.MustNewElement(tag.InstanceNumber, []string{"1"}),
		dcm.MustNewElement(tag.FrameOfReferenceUID, []string{UID(studyUID + "/frame")}),
		dcm.MustNewElement(tag.InstitutionName, []string{institutions[rng.IntN(len(institutions))]}),
		dcm.MustNewElement(tag.StationName, []string{fmt.Sprintf("MR%02d", 1+rng.IntN(9))}),
		dcm.MustNewElement(tag.ReferringPhysicianName, []string{referring}),
		dcm.MustNewElement(tag.PerformingPhysicianName, []string{performing}),
		dcm.MustNewElement(tag.OperatorsName, []string{operator}),
		dcm.MustNewElement(tag.BodyPartExamined, []string{"HEAD"}),
		dcm.MustNewElement(tag.PixelSpacing, []string{"1.000000", "1.000000"}),
		dcm.MustNewElement(tag.SliceThickness, []string{"1.000000"}),
		dcm.MustNewElement(tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
		dcm.MustNewElement(tag.ImagePositionPatient, []string{"-100", "-100", "0"}),
		dcm.MustNewElement(tag.NumberOfFrames, []string{fmt.Sprint(frames)}),
		dcm.MustNewElement(tag.SamplesPerPixel, []int{1}),
		dcm.MustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		dcm.MustNewElement(tag.Rows, []int{spec.Height}),
		dcm.MustNewElement(tag.Columns, []int{spec.Width}),
		dcm.MustNewElement(tag.BitsAllocated, []int{int(cfg.BitsAllocated)}),
		dcm.MustNewElement(tag.BitsStored, []int{int(cfg.BitsStored)}),
		dcm.MustNewElement(tag.HighBit, []int{int(cfg.HighBit)}),
		dcm.MustNewElement(tag.PixelRepresentation, []int{0}),
	}}
	spec.Sequence.AppendElements(ds, spec.Scanner, rng)

	ds.Elements = append(ds.Elements, dcm.MustNewElement(tag.PixelData, pixelData(spec, frames, cfg)))
	SortElements(ds)
	return ds, nil
}

// SortElements orders top-level elements by (group, element), which the
// writer expects.
func SortElements(ds *dicom.Dataset) {
	sort.SliceStable(ds.Elements, func(i, j int) bool {
		a, b := ds.Elements[i].Tag, ds.Elements[j].Tag
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Element < b.Element
	})
}

// pixelData renders a bright disc with layered noise, one frame per
// repetition, each carrying the overlay.
func pixelData(spec SeriesSpec, frames int, cfg modalities.PixelConfig) dicom.PixelDataInfo {
	width, height := spec.Width, spec.Height
	rng := rand.New(rand.NewPCG(spec.Seed, spec.Seed))

	valueRange := float64(cfg.MaxValue)
	base := float64(cfg.BaseValue)
	centerX, centerY := float64(width)/2, float64(height)/2
	maxDist := math.Sqrt(centerX*centerX + centerY*centerY)

	info := dicom.PixelDataInfo{}
	for f := 0; f < frames; f++ {
		nf := frame.NewNativeFrame[uint16](int(cfg.BitsAllocated), height, width, width*height, 1)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dx, dy := float64(x)-centerX, float64(y)-centerY
				dist := math.Sqrt(dx*dx+dy*dy) / maxDist
				intensity := base + (1.0-dist)*valueRange*0.3
				intensity += (rng.Float64() - 0.5) * valueRange * 0.3
				intensity += (rng.Float64() - 0.5) * valueRange * 0.075
				nf.RawData[y*width+x] = uint16(math.Max(0, math.Min(valueRange, intensity)))
			}
		}
		drawText(nf, width, height, spec.Overlay, cfg.MaxValue)
		info.Frames = append(info.Frames, &frame.Frame{Encapsulated: false, NativeData: nf})
	}
	return info
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
