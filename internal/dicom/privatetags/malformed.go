package privatetags

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
)

// Siemens scanners occasionally write elements whose length contradicts
// their VR, e.g. LineThickness (0070,0253) FL with 7 bytes or PixelData with
// an odd length. The writer refuses such elements, so a private OB
// placeholder is written first and the file is patched afterwards.
var (
	placeholderTag   = tag.Tag{Group: 0x0071, Element: 0x0010}
	lineThicknessTag = tag.Tag{Group: 0x0070, Element: 0x0253}
)

// malformedPlaceholders returns the element PatchMalformedLengths turns into
// a 7-byte LineThickness.
func malformedPlaceholders() []*dicom.Element {
	return []*dicom.Element{
		dcm.MustNewPrivateElement(placeholderTag, "OB",
			[]byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0x40}),
	}
}

// PatchMalformedLengths rewrites a written file in place so that it carries
// the malformed lengths. A patched file fails a strict parse and is read back
// header-only.
func PatchMalformedLengths(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file for malformed patching: %w", err)
	}

	retagged := retagPlaceholder(data)
	odd := oddPixelLength(data)
	if !retagged && !odd {
		return nil
	}
	return os.WriteFile(filePath, data, 0o600)
}

// elementHeader is an explicit VR little endian element header.
type elementHeader struct {
	tag tag.Tag
	vr  string
	vl  uint32
}

// longForm reports whether vr uses the 12-byte header with a 4-byte length.
func longForm(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OW", "SQ", "UC", "UN", "UR", "UT":
		return true
	}
	return false
}

// headerOffsets returns the offset of every complete header starting with t.
func headerOffsets(data []byte, t tag.Tag) []int {
	var key [4]byte
	binary.LittleEndian.PutUint16(key[0:2], t.Group)
	binary.LittleEndian.PutUint16(key[2:4], t.Element)

	var out []int
	for off := 0; off < len(data); {
		i := bytes.Index(data[off:], key[:])
		if i < 0 {
			break
		}
		at := off + i
		if at+12 <= len(data) {
			out = append(out, at)
		}
		off = at + 1
	}
	return out
}

func readHeader(data []byte, at int) elementHeader {
	h := elementHeader{
		tag: tag.Tag{
			Group:   binary.LittleEndian.Uint16(data[at : at+2]),
			Element: binary.LittleEndian.Uint16(data[at+2 : at+4]),
		},
		vr: string(data[at+4 : at+6]),
	}
	if longForm(h.vr) {
		h.vl = binary.LittleEndian.Uint32(data[at+8 : at+12])
	} else {
		h.vl = uint32(binary.LittleEndian.Uint16(data[at+6 : at+8]))
	}
	return h
}

func writeHeader(data []byte, at int, h elementHeader) {
	binary.LittleEndian.PutUint16(data[at:at+2], h.tag.Group)
	binary.LittleEndian.PutUint16(data[at+2:at+4], h.tag.Element)
	copy(data[at+4:at+6], h.vr)
	if longForm(h.vr) {
		data[at+6], data[at+7] = 0, 0
		binary.LittleEndian.PutUint32(data[at+8:at+12], h.vl)
		return
	}
	binary.LittleEndian.PutUint16(data[at+6:at+8], uint16(h.vl))
}

// retagPlaceholder turns the first placeholder into LineThickness FL with a
// length of 7.
func retagPlaceholder(data []byte) bool {
	offsets := headerOffsets(data, placeholderTag)
	if len(offsets) == 0 {
		return false
	}
	writeHeader(data, offsets[0], elementHeader{tag: lineThicknessTag, vr: "FL", vl: 7})
	return true
}

// oddPixelLength shortens the first even-length native PixelData by one byte.
func oddPixelLength(data []byte) bool {
	for _, at := range headerOffsets(data, tag.PixelData) {
		h := readHeader(data, at)
		if (h.vr != "OW" && h.vr != "OB") || h.vl < 2 || h.vl%2 != 0 {
			continue
		}
		h.vl--
		writeHeader(data, at, h)
		return true
	}
	return false
}
