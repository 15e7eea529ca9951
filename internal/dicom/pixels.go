package dicom

import (
	"errors"
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

var (
	// ErrNoPixelData is returned when a dataset has no usable pixel payload.
	ErrNoPixelData = errors.New("dataset has no pixel data")
	// ErrEncapsulated is returned for compressed transfer syntaxes, which are
	// left to the external converter.
	ErrEncapsulated = errors.New("encapsulated pixel data is not supported")
)

// PixelPayload holds the native pixel samples of every frame of a dataset.
// Data is frame-major, row-major inside a frame, with samples interleaved, and
// is one of []uint8, []int8, []uint16, []int16, []uint32 or []int32.
type PixelPayload struct {
	Rows    int
	Cols    int
	Frames  int
	Samples int
	Bits    int
	Signed  bool
	Data    any
}

// Dimensions returns the number of image axes: 2 for a single frame, 3 for a
// multi-frame payload and 0 when rows or columns are missing.
func (p *PixelPayload) Dimensions() int {
	switch {
	case p.Rows <= 0 || p.Cols <= 0:
		return 0
	case p.Frames > 1:
		return 3
	default:
		return 2
	}
}

// ExtractPixels copies the native frames of ds into a PixelPayload.
func ExtractPixels(ds *dicom.Dataset) (*PixelPayload, error) {
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil || elem == nil {
		return nil, ErrNoPixelData
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || info.IntentionallySkipped || len(info.Frames) == 0 {
		return nil, ErrNoPixelData
	}

	p := &PixelPayload{
		Rows:    intValue(ds, tag.Rows),
		Cols:    intValue(ds, tag.Columns),
		Frames:  len(info.Frames),
		Samples: max(intValue(ds, tag.SamplesPerPixel), 1),
		Signed:  intValue(ds, tag.PixelRepresentation) == 1,
	}

	var u8 []uint8
	var u16 []uint16
	var u32 []uint32
	for i, f := range info.Frames {
		if f == nil || f.Encapsulated {
			return nil, ErrEncapsulated
		}
		switch nf := f.NativeData.(type) {
		case *frame.NativeFrame[uint8]:
			u8 = append(u8, nf.RawData...)
			p.Bits = 8
		case *frame.NativeFrame[uint16]:
			u16 = append(u16, nf.RawData...)
			p.Bits = 16
		case *frame.NativeFrame[uint32]:
			u32 = append(u32, nf.RawData...)
			p.Bits = 32
		default:
			return nil, fmt.Errorf("frame %d: unsupported native frame %T", i, f.NativeData)
		}
		if p.Rows == 0 || p.Cols == 0 {
			p.Rows, p.Cols = f.NativeData.Rows(), f.NativeData.Cols()
		}
	}

	switch p.Bits {
	case 8:
		p.Data = u8
		if p.Signed {
			p.Data = reinterpret[uint8, int8](u8)
		}
	case 16:
		p.Data = u16
		if p.Signed {
			p.Data = reinterpret[uint16, int16](u16)
		}
	case 32:
		p.Data = u32
		if p.Signed {
			p.Data = reinterpret[uint32, int32](u32)
		}
	}

	want := p.Rows * p.Cols * p.Frames * p.Samples
	if got := sampleCount(p.Data); got != want {
		return nil, fmt.Errorf("pixel data has %d samples, header describes %d", got, want)
	}
	return p, nil
}

// reinterpret converts unsigned samples to their two's complement signed value.
func reinterpret[U uint8 | uint16 | uint32, S int8 | int16 | int32](in []U) []S {
	out := make([]S, len(in))
	for i, v := range in {
		out[i] = S(v)
	}
	return out
}

func sampleCount(data any) int {
	switch d := data.(type) {
	case []uint8:
		return len(d)
	case []int8:
		return len(d)
	case []uint16:
		return len(d)
	case []int16:
		return len(d)
	case []uint32:
		return len(d)
	case []int32:
		return len(d)
	default:
		return 0
	}
}

// intValue returns the first integer of t, or 0.
func intValue(ds *dicom.Dataset, t tag.Tag) int {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil || elem.Value == nil {
		return 0
	}
	if elem.Value.ValueType() != dicom.Ints {
		return 0
	}
	ints, ok := elem.Value.GetValue().([]int)
	if !ok || len(ints) == 0 {
		return 0
	}
	return ints[0]
}
