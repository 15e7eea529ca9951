package privatetags

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestBuildCSAHeader(t *testing.T) {
	elements := []csaElement{
		{Name: "TestElement", VM: 1, VR: "IS", SyngoDT: 6, NumItems: 1, Values: []string{"42"}},
	}

	data := buildCSAHeader(elements)

	if string(data[0:4]) != "SV10" {
		t.Errorf("expected SV10 magic, got %q", string(data[0:4]))
	}
	if data[4] != 0x04 || data[5] != 0x03 || data[6] != 0x02 || data[7] != 0x01 {
		t.Error("incorrect secondary magic bytes")
	}
	if !bytes.Contains(data, []byte("TestElement")) {
		t.Error("element name not encoded")
	}
}

func TestCSAImageHeader(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))

	bold := csaImageHeader(Acquisition{Manufacturer: "SIEMENS", Sequence: sequenceNamed(t, "bold")}, rng)
	if string(bold[0:4]) != "SV10" {
		t.Errorf("expected SV10 magic, got %q", string(bold[0:4]))
	}
	if len(bold) < 1024 {
		t.Errorf("header too small: %d bytes", len(bold))
	}
	if len(bold)%2 != 0 {
		t.Errorf("header has odd length %d", len(bold))
	}

	dwi := csaImageHeader(Acquisition{Manufacturer: "SIEMENS", Sequence: sequenceNamed(t, "dwi")}, rng)
	if !bytes.Contains(dwi, []byte("0.57735")) {
		t.Error("diffusion header should carry a gradient direction")
	}
}

func TestCSASeriesHeader(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	seq := sequenceNamed(t, "t2")
	header := csaSeriesHeader(Acquisition{Manufacturer: "SIEMENS", Sequence: seq}, rng)

	if string(header[0:4]) != "SV10" {
		t.Errorf("expected SV10 magic, got %q", string(header[0:4]))
	}
	if !bytes.Contains(header, []byte(seq.SequenceName)) {
		t.Errorf("series header should name sequence %q", seq.SequenceName)
	}
}

func TestSiemensCSAElements(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	elements := siemensCSAElements(Acquisition{Manufacturer: "SIEMENS", Sequence: sequenceNamed(t, "t1")}, rng)

	want := []tag.Tag{
		{Group: 0x0029, Element: 0x0010},
		CSAImageHeaderInfo,
		CSASeriesHeaderInfo,
		{Group: 0x0029, Element: 0x1102},
	}
	if len(elements) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(elements))
	}
	for i, w := range want {
		if elements[i].Tag != w {
			t.Errorf("element %d = %v, want %v", i, elements[i].Tag, w)
		}
	}
	if elements[3].RawValueRepresentation != "SQ" {
		t.Errorf("non-image element should be SQ, got %s", elements[3].RawValueRepresentation)
	}
}

func TestGEPrivateElements(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	elements := gePrivateElements(Acquisition{Manufacturer: "GE MEDICAL SYSTEMS", Sequence: sequenceNamed(t, "dwi")}, rng)

	want := []tag.Tag{
		{Group: 0x0009, Element: 0x0010},
		{Group: 0x0043, Element: 0x0010},
		{Group: 0x0009, Element: 0x10E3},
		{Group: 0x0043, Element: 0x1039},
	}
	if len(elements) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(elements))
	}
	for i, w := range want {
		if elements[i].Tag != w {
			t.Errorf("element %d = %v, want %v", i, elements[i].Tag, w)
		}
	}

	values, ok := elements[3].Value.GetValue().([]string)
	if !ok || len(values) != 4 {
		t.Fatalf("b-value element has unexpected value %v", elements[3].Value)
	}
	if values[0] != "1000001000" {
		t.Errorf("b-value = %q, want 1000001000", values[0])
	}
}

func TestPhilipsPrivateElements(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	elements := philipsPrivateElements(rng)

	want := []tag.Tag{
		{Group: 0x2001, Element: 0x0010},
		{Group: 0x2005, Element: 0x0010},
		{Group: 0x2005, Element: 0x100E},
	}
	if len(elements) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(elements))
	}
	for i, w := range want {
		if elements[i].Tag != w {
			t.Errorf("element %d = %v, want %v", i, elements[i].Tag, w)
		}
	}
	if elements[2].RawValueRepresentation != "SQ" {
		t.Errorf("third element should have SQ VR, got %s", elements[2].RawValueRepresentation)
	}
}

func TestRandomBytesEvenLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		b := randomBytes(rng, 11, 7)
		if len(b)%2 != 0 || len(b) < 11 {
			t.Fatalf("randomBytes returned %d bytes", len(b))
		}
	}
}
