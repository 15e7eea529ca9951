// Package dicom reads, inspects and writes the DICOM records fed to the BIDS export.
package dicom

import (
	"errors"
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
)

// Record is one DICOM acquisition loaded from disk.
type Record struct {
	Path    string
	Dataset dicom.Dataset
	// Partial is set when the full parse failed and only the header could be
	// recovered. Partial records never carry pixel data.
	Partial bool
}

// Header returns the structured header accessor for the record.
func (r *Record) Header() Header {
	return NewHeader(&r.Dataset)
}

// ReadFile parses a DICOM file including its pixel data. When the full parse
// fails the file is read again element by element without pixel data, so that
// header-driven decisions still work on damaged files.
func ReadFile(path string) (*Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	ds, err := dicom.ParseFile(path, nil)
	if err == nil {
		return &Record{Path: path, Dataset: ds}, nil
	}

	partial, tolerantErr := parseTolerant(path)
	if tolerantErr != nil {
		return nil, fmt.Errorf("parse %s: %w", path, errors.Join(err, tolerantErr))
	}
	return &Record{Path: path, Dataset: partial, Partial: true}, nil
}

// parseTolerant parses a DICOM file element-by-element and keeps every element
// read before the first error.
func parseTolerant(path string) (dicom.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return dicom.Dataset{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return dicom.Dataset{}, err
	}

	p, err := dicom.NewParser(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return dicom.Dataset{}, err
	}

	var elements []*dicom.Element
	for {
		elem, err := p.Next()
		if err != nil {
			break
		}
		elements = append(elements, elem)
	}

	if len(elements) == 0 {
		return dicom.Dataset{}, fmt.Errorf("no elements parsed")
	}

	meta := p.GetMetadata()
	return dicom.Dataset{Elements: append(meta.Elements, elements...)}, nil
}

// WriteFile writes a dataset to filename. Vendor data frequently disagrees with
// the standard dictionary, so VR and value type verification are skipped.
func WriteFile(filename string, ds dicom.Dataset) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := dicom.Write(f, ds, dicom.SkipVRVerification(), dicom.SkipValueTypeVerification()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return f.Close()
}
