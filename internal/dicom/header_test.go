package dicom

import (
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func newTestDataset(elems ...*dicom.Element) *dicom.Dataset {
	return &dicom.Dataset{Elements: elems}
}

func TestHeaderLookup(t *testing.T) {
	ds := newTestDataset(
		MustNewElement(tag.Modality, []string{"MR"}),
		MustNewElement(tag.ImageType, []string{"ORIGINAL", "PRIMARY", "M"}),
		MustNewElement(tag.SeriesDescription, []string{" T1 MPRAGE "}),
		MustNewElement(tag.Rows, []int{64}),
	)
	h := NewHeader(ds)

	tests := []struct {
		tag     tag.Tag
		want    string
		present bool
	}{
		{tag.Modality, "MR", true},
		{tag.ImageType, `ORIGINAL\PRIMARY\M`, true},
		{tag.SeriesDescription, "T1 MPRAGE", true},
		{tag.Rows, "64", true},
		{tag.PatientName, "", false},
	}

	for _, tc := range tests {
		got, ok := h.Lookup(tc.tag)
		if got != tc.want || ok != tc.present {
			t.Errorf("Lookup(%v) = (%q, %v), want (%q, %v)", tc.tag, got, ok, tc.want, tc.present)
		}
	}
}

func TestHeaderNilDataset(t *testing.T) {
	h := NewHeader(nil)
	if h.Modality() != "" || h.SeriesDescription() != "" || h.ImageType() != "" {
		t.Error("nil header should read every field as empty")
	}
	if h.HasPixelData() {
		t.Error("nil header should not report pixel data")
	}
}

func TestSetStringInsertsInOrder(t *testing.T) {
	ds := newTestDataset(
		MustNewElement(tag.Modality, []string{"MR"}),
		MustNewElement(tag.SeriesDescription, []string{"t2"}),
	)

	if err := SetString(ds, tag.PatientName, "Doe^John"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := SetString(ds, tag.Modality, "CT"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	if len(ds.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(ds.Elements))
	}
	for i := 1; i < len(ds.Elements); i++ {
		if !tagLess(ds.Elements[i-1].Tag, ds.Elements[i].Tag) {
			t.Errorf("elements out of order at %d: %v before %v", i, ds.Elements[i-1].Tag, ds.Elements[i].Tag)
		}
	}
	if got := NewHeader(ds).Modality(); got != "CT" {
		t.Errorf("Modality() = %q, want CT", got)
	}
}

func TestIsPrivate(t *testing.T) {
	if !IsPrivate(tag.Tag{Group: 0x0029, Element: 0x1010}) {
		t.Error("group 0x0029 should be private")
	}
	if IsPrivate(tag.PatientName) {
		t.Error("PatientName should not be private")
	}
}

func TestRemove(t *testing.T) {
	ds := newTestDataset(
		MustNewElement(tag.PatientName, []string{"DOE^JOHN"}),
		MustNewElement(tag.PatientID, []string{"PID1"}),
		MustNewElement(tag.Modality, []string{"MR"}),
	)

	if got := Remove(ds, tag.PatientName, tag.StudyDate); got != 1 {
		t.Errorf("Remove() = %d, want 1", got)
	}
	h := NewHeader(ds)
	if h.Has(tag.PatientName) || !h.Has(tag.PatientID) || !h.Has(tag.Modality) {
		t.Errorf("unexpected elements after Remove: %v", ds.Elements)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	const rows, cols = 4, 3
	nf := frame.NewNativeFrame[uint16](16, rows, cols, rows*cols, 1)
	for i := range nf.RawData {
		nf.RawData[i] = uint16(i * 100)
	}

	ds := dicom.Dataset{Elements: []*dicom.Element{
		MustNewElement(tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		MustNewElement(tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4"}),
		MustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		MustNewElement(tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		MustNewElement(tag.SOPInstanceUID, []string{"1.2.3.4"}),
		MustNewElement(tag.Modality, []string{"MR"}),
		MustNewElement(tag.SeriesDescription, []string{"t1_mprage"}),
		MustNewElement(tag.SamplesPerPixel, []int{1}),
		MustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		MustNewElement(tag.Rows, []int{rows}),
		MustNewElement(tag.Columns, []int{cols}),
		MustNewElement(tag.BitsAllocated, []int{16}),
		MustNewElement(tag.BitsStored, []int{12}),
		MustNewElement(tag.HighBit, []int{11}),
		MustNewElement(tag.PixelRepresentation, []int{0}),
		MustNewElement(tag.PixelData, dicom.PixelDataInfo{
			Frames: []*frame.Frame{{Encapsulated: false, NativeData: nf}},
		}),
	}}

	path := filepath.Join(t.TempDir(), "image.dcm")
	if err := WriteFile(path, ds); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if rec.Partial {
		t.Error("expected a full parse")
	}
	h := rec.Header()
	if h.Modality() != "MR" || h.SeriesDescription() != "t1_mprage" {
		t.Errorf("unexpected header: modality %q, description %q", h.Modality(), h.SeriesDescription())
	}
	if !h.HasPixelData() {
		t.Fatal("expected pixel data")
	}

	p, err := ExtractPixels(&rec.Dataset)
	if err != nil {
		t.Fatalf("ExtractPixels: %v", err)
	}
	if p.Rows != rows || p.Cols != cols || p.Frames != 1 || p.Bits != 16 {
		t.Errorf("payload = %dx%dx%d (%d bits), want %dx%dx1 (16 bits)", p.Rows, p.Cols, p.Frames, p.Bits, rows, cols)
	}
	data, ok := p.Data.([]uint16)
	if !ok {
		t.Fatalf("Data is %T, want []uint16", p.Data)
	}
	if data[5] != 500 {
		t.Errorf("data[5] = %d, want 500", data[5])
	}
	if p.Dimensions() != 2 {
		t.Errorf("Dimensions() = %d, want 2", p.Dimensions())
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.dcm")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestExtractPixelsWithoutPayload(t *testing.T) {
	ds := newTestDataset(MustNewElement(tag.Modality, []string{"MR"}))
	if _, err := ExtractPixels(ds); err != ErrNoPixelData {
		t.Errorf("ExtractPixels() error = %v, want ErrNoPixelData", err)
	}
}

func TestExtractPixelsSigned(t *testing.T) {
	nf := frame.NewNativeFrame[uint16](16, 2, 2, 4, 1)
	nf.RawData = []uint16{0, 1, 0xFFFF, 0x8000}
	ds := newTestDataset(
		MustNewElement(tag.Rows, []int{2}),
		MustNewElement(tag.Columns, []int{2}),
		MustNewElement(tag.PixelRepresentation, []int{1}),
		MustNewElement(tag.PixelData, dicom.PixelDataInfo{
			Frames: []*frame.Frame{{NativeData: nf}},
		}),
	)

	p, err := ExtractPixels(ds)
	if err != nil {
		t.Fatalf("ExtractPixels: %v", err)
	}
	data, ok := p.Data.([]int16)
	if !ok {
		t.Fatalf("Data is %T, want []int16", p.Data)
	}
	if data[2] != -1 || data[3] != -32768 {
		t.Errorf("signed samples = %v, want [0 1 -1 -32768]", data)
	}
}
