package dicom

import (
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// MustNewElement creates a new DICOM element, panicking on error.
func MustNewElement(t tag.Tag, value any) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// MustNewPrivateElement creates an element with a private tag and explicit VR.
// dicom.NewElement refuses tags missing from the dictionary.
func MustNewPrivateElement(t tag.Tag, rawVR string, data any) *dicom.Element {
	value, err := dicom.NewValue(data)
	if err != nil {
		panic(fmt.Sprintf("failed to create value for private element %v: %v", t, err))
	}
	return &dicom.Element{
		Tag:                    t,
		ValueRepresentation:    tag.GetVRKind(t, rawVR),
		RawValueRepresentation: rawVR,
		Value:                  value,
	}
}

// IsPrivate reports whether t belongs to an odd, vendor-defined group.
func IsPrivate(t tag.Tag) bool {
	return t.Group%2 == 1
}

// SetString replaces the value of t with values, appending the element when
// the dataset does not have it yet.
func SetString(ds *dicom.Dataset, t tag.Tag, values ...string) error {
	if elem, err := ds.FindElementByTag(t); err == nil && elem != nil {
		v, err := dicom.NewValue(values)
		if err != nil {
			return err
		}
		elem.Value = v
		return nil
	}
	elem, err := dicom.NewElement(t, values)
	if err != nil {
		return fmt.Errorf("new element %v: %w", t, err)
	}
	insertSorted(ds, elem)
	return nil
}

// insertSorted keeps top-level elements in ascending tag order, which the
// encoder relies on.
func insertSorted(ds *dicom.Dataset, elem *dicom.Element) {
	i := 0
	for i < len(ds.Elements) && tagLess(ds.Elements[i].Tag, elem.Tag) {
		i++
	}
	ds.Elements = append(ds.Elements, nil)
	copy(ds.Elements[i+1:], ds.Elements[i:])
	ds.Elements[i] = elem
}

func tagLess(a, b tag.Tag) bool {
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.Element < b.Element
}

// Remove deletes the top-level elements with the given tags and returns how
// many were removed.
func Remove(ds *dicom.Dataset, tags ...tag.Tag) int {
	drop := make(map[tag.Tag]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}
	kept := ds.Elements[:0]
	for _, elem := range ds.Elements {
		if !drop[elem.Tag] {
			kept = append(kept, elem)
		}
	}
	removed := len(ds.Elements) - len(kept)
	ds.Elements = kept
	return removed
}

// Insert adds elem at its sorted position, replacing an element with the
// same tag.
func Insert(ds *dicom.Dataset, elem *dicom.Element) {
	for i, e := range ds.Elements {
		if e.Tag == elem.Tag {
			ds.Elements[i] = elem
			return
		}
	}
	insertSorted(ds, elem)
}
