package dicom

import (
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Header is a read-only view over the fields of a dataset. Every accessor is
// total: absent or non-textual elements read as the empty string.
type Header struct {
	ds *dicom.Dataset
}

// NewHeader wraps ds. A nil dataset behaves as an empty header.
func NewHeader(ds *dicom.Dataset) Header {
	return Header{ds: ds}
}

// Lookup returns the textual value of t and whether the element is present.
// Multi-valued strings are joined with a backslash, the DICOM value separator.
func (h Header) Lookup(t tag.Tag) (string, bool) {
	if h.ds == nil {
		return "", false
	}
	elem, err := h.ds.FindElementByTag(t)
	if err != nil || elem == nil || elem.Value == nil {
		return "", false
	}

	switch elem.Value.ValueType() {
	case dicom.Strings:
		values, ok := elem.Value.GetValue().([]string)
		if !ok {
			return "", true
		}
		return strings.TrimSpace(strings.Join(values, `\`)), true
	default:
		return strings.Trim(elem.Value.String(), " []"), true
	}
}

// String returns the value of t, or "" when absent.
func (h Header) String(t tag.Tag) string {
	v, _ := h.Lookup(t)
	return v
}

// Has reports whether t is present.
func (h Header) Has(t tag.Tag) bool {
	_, ok := h.Lookup(t)
	return ok
}

// Modality returns (0008,0060).
func (h Header) Modality() string { return h.String(tag.Modality) }

// SeriesDescription returns (0008,103E).
func (h Header) SeriesDescription() string { return h.String(tag.SeriesDescription) }

// ImageType returns (0008,0008) with its values joined by a backslash.
func (h Header) ImageType() string { return h.String(tag.ImageType) }

// HasPixelData reports whether the dataset carries a pixel payload.
func (h Header) HasPixelData() bool {
	if h.ds == nil {
		return false
	}
	elem, err := h.ds.FindElementByTag(tag.PixelData)
	return err == nil && elem != nil
}
