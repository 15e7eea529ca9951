package privatetags

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// header encodes an explicit VR little endian element header.
func header(t tag.Tag, vr string, vl uint32) []byte {
	b := make([]byte, 12)
	writeHeader(b, 0, elementHeader{tag: t, vr: vr, vl: vl})
	if longForm(vr) {
		return b
	}
	return b[:8]
}

func TestMalformedPlaceholders(t *testing.T) {
	elements := malformedPlaceholders()
	if len(elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elements))
	}
	if elements[0].Tag != placeholderTag {
		t.Errorf("placeholder tag = %v, want %v", elements[0].Tag, placeholderTag)
	}
	if elements[0].RawValueRepresentation != "OB" {
		t.Errorf("placeholder VR = %s, want OB", elements[0].RawValueRepresentation)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	tests := []elementHeader{
		{tag: tag.PixelData, vr: "OW", vl: 131072},
		{tag: lineThicknessTag, vr: "FL", vl: 4},
		{tag: tag.PatientName, vr: "PN", vl: 12},
	}
	for _, want := range tests {
		data := append(header(want.tag, want.vr, want.vl), make([]byte, 4)...)
		if got := readHeader(data, 0); got != want {
			t.Errorf("readHeader(writeHeader(%+v)) = %+v", want, got)
		}
	}
}

func TestHeaderOffsets(t *testing.T) {
	var data []byte
	data = append(data, header(tag.PatientName, "PN", 0)...)
	data = append(data, header(tag.PixelData, "OW", 2)...)
	data = append(data, 0xAA, 0xBB)
	data = append(data, header(tag.PixelData, "OW", 4)...)

	got := headerOffsets(data, tag.PixelData)
	if len(got) != 2 || got[0] != 8 || got[1] != 22 {
		t.Errorf("headerOffsets() = %v, want [8 22]", got)
	}
	if got := headerOffsets(data, placeholderTag); got != nil {
		t.Errorf("headerOffsets(placeholder) = %v, want none", got)
	}
	// A match too close to the end cannot hold a header.
	if got := headerOffsets(data[:len(data)-1], tag.PixelData); len(got) != 1 {
		t.Errorf("truncated data: headerOffsets() = %v, want one offset", got)
	}
}

func TestRetagPlaceholder(t *testing.T) {
	data := append(header(placeholderTag, "OB", 8), 0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0x40)

	if !retagPlaceholder(data) {
		t.Fatal("retagPlaceholder() = false, want true")
	}
	got := readHeader(data, 0)
	want := elementHeader{tag: lineThicknessTag, vr: "FL", vl: 7}
	if got != want {
		t.Errorf("header = %+v, want %+v", got, want)
	}

	if retagPlaceholder(make([]byte, 12)) {
		t.Error("retagPlaceholder() patched data without a placeholder")
	}
}

func TestOddPixelLength(t *testing.T) {
	tests := []struct {
		name   string
		vr     string
		vl     uint32
		want   bool
		wantVL uint32
	}{
		{"even OW", "OW", 131072, true, 131071},
		{"even OB", "OB", 4, true, 3},
		{"already odd", "OW", 7, false, 7},
		{"too short", "OW", 0, false, 0},
		{"encapsulated marker", "OB", 0xFFFFFFFF, false, 0xFFFFFFFF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := header(tag.PixelData, tc.vr, tc.vl)
			if got := oddPixelLength(data); got != tc.want {
				t.Fatalf("oddPixelLength() = %v, want %v", got, tc.want)
			}
			if vl := binary.LittleEndian.Uint32(data[8:12]); vl != tc.wantVL {
				t.Errorf("VL = %d, want %d", vl, tc.wantVL)
			}
		})
	}

	if oddPixelLength(make([]byte, 12)) {
		t.Error("oddPixelLength() patched data without PixelData")
	}
}

func TestPatchMalformedLengths_File(t *testing.T) {
	var data []byte
	data = append(data, header(placeholderTag, "OB", 8)...)
	data = append(data, 0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0x40)
	data = append(data, header(tag.PixelData, "OW", 4)...)
	data = append(data, 0x01, 0x00, 0x02, 0x00)

	path := filepath.Join(t.TempDir(), "image.dcm")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := PatchMalformedLengths(path); err != nil {
		t.Fatalf("PatchMalformedLengths() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if h := readHeader(got, 0); h.tag != lineThicknessTag || h.vl != 7 {
		t.Errorf("placeholder header = %+v", h)
	}
	if h := readHeader(got, 20); h.tag != tag.PixelData || h.vl != 3 {
		t.Errorf("PixelData header = %+v, want VL 3", h)
	}
}

func TestPatchMalformedLengths_Untouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.dcm")
	data := header(tag.PatientName, "PN", 0)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := PatchMalformedLengths(path); err != nil {
		t.Fatalf("PatchMalformedLengths() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("file without placeholders was rewritten (mode %v)", info.Mode().Perm())
	}
}

func TestPatchMalformedLengths_MissingFile(t *testing.T) {
	if err := PatchMalformedLengths(filepath.Join(t.TempDir(), "missing.dcm")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
