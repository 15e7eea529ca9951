package nifti

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
)

// ErrTooFewDimensions is returned for payloads that are not at least 2-D.
var ErrTooFewDimensions = errors.New("pixel data has fewer than 2 dimensions")

// Volume is an image grid ready to be written as NIfTI.
type Volume struct {
	// Dims are nx, ny, nz. nz is 1 for a single slice.
	Dims     [3]int
	DataType int16
	// Data is one of []uint8, []int8, []uint16, []int16, []uint32 or []int32,
	// with x varying fastest. RGB volumes hold interleaved uint8 triplets.
	Data any
	// Affine maps voxel indices to millimetres. Nil means identity.
	Affine      *mat.Dense
	Description string
}

// Identity returns the 4x4 identity affine.
func Identity() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// FromPixels builds a volume from a DICOM pixel payload with an identity
// affine. Columns map to x, rows to y and frames to z, which keeps the
// DICOM sample order.
func FromPixels(p *dcm.PixelPayload) (*Volume, error) {
	if p == nil {
		return nil, dcm.ErrNoPixelData
	}
	if p.Dimensions() < 2 {
		return nil, ErrTooFewDimensions
	}

	dt, err := dataType(p)
	if err != nil {
		return nil, err
	}

	return &Volume{
		Dims:     [3]int{p.Cols, p.Rows, max(p.Frames, 1)},
		DataType: dt,
		Data:     p.Data,
		Affine:   Identity(),
	}, nil
}

func dataType(p *dcm.PixelPayload) (int16, error) {
	if p.Samples == 3 {
		if _, ok := p.Data.([]uint8); ok {
			return DTRGB24, nil
		}
		return 0, fmt.Errorf("unsupported %d-bit colour data", p.Bits)
	}
	if p.Samples != 1 {
		return 0, fmt.Errorf("unsupported samples per pixel: %d", p.Samples)
	}

	switch p.Data.(type) {
	case []uint8:
		return DTUint8, nil
	case []int8:
		return DTInt8, nil
	case []uint16:
		return DTUint16, nil
	case []int16:
		return DTInt16, nil
	case []uint32:
		return DTUint32, nil
	case []int32:
		return DTInt32, nil
	default:
		return 0, fmt.Errorf("unsupported pixel data type %T", p.Data)
	}
}

// Header builds the NIfTI-1 header describing v.
func (v *Volume) Header() (Header, error) {
	bitpix := bitsPerVoxel(v.DataType)
	if bitpix == 0 {
		return Header{}, fmt.Errorf("unknown datatype %d", v.DataType)
	}
	for i, d := range v.Dims {
		if d < 1 || d > 32767 {
			return Header{}, fmt.Errorf("dimension %d out of range: %d", i+1, d)
		}
	}

	affine := v.Affine
	if affine == nil {
		affine = Identity()
	}
	if r, c := affine.Dims(); r != 4 || c != 4 {
		return Header{}, fmt.Errorf("affine must be 4x4, got %dx%d", r, c)
	}

	h := Header{
		SizeOfHdr: HeaderSize,
		DataType:  v.DataType,
		BitPix:    bitpix,
		VoxOffset: VoxOffset,
		SclSlope:  1,
		XYZTUnits: UnitsMM,
		QFormCode: XFormUnknown,
		SFormCode: XFormAlignedAnat,
		Magic:     magic,
	}

	ndim := 2
	if v.Dims[2] > 1 {
		ndim = 3
	}
	h.Dim[0] = int16(ndim)
	for i := 0; i < 7; i++ {
		h.Dim[i+1] = 1
	}
	for i, d := range v.Dims {
		h.Dim[i+1] = int16(d)
	}

	h.PixDim[0] = qfac(affine)
	spacing := voxelSpacing(affine)
	for i := range spacing {
		h.PixDim[i+1] = float32(spacing[i])
	}

	for j := 0; j < 4; j++ {
		h.SRowX[j] = float32(affine.At(0, j))
		h.SRowY[j] = float32(affine.At(1, j))
		h.SRowZ[j] = float32(affine.At(2, j))
	}
	h.QOffsetX, h.QOffsetY, h.QOffsetZ = h.SRowX[3], h.SRowY[3], h.SRowZ[3]

	if v.DataType != DTRGB24 {
		if lo, hi, ok := intensityRange(v.Data); ok {
			h.CalMin, h.CalMax = float32(lo), float32(hi)
		}
	}

	copy(h.Descrip[:len(h.Descrip)-1], v.Description)
	return h, nil
}

// voxelSpacing returns the column norms of the rotation-zoom part of affine.
func voxelSpacing(affine *mat.Dense) [3]float64 {
	var out [3]float64
	for j := 0; j < 3; j++ {
		col := mat.Col(nil, j, affine.Slice(0, 3, 0, 3))
		out[j] = floats.Norm(col, 2)
	}
	return out
}

// qfac is the handedness stored in pixdim[0].
func qfac(affine *mat.Dense) float32 {
	if mat.Det(affine.Slice(0, 3, 0, 3)) < 0 {
		return -1
	}
	return 1
}

// intensityRange returns the smallest and largest sample of data.
func intensityRange(data any) (float64, float64, bool) {
	values := toFloat64(data)
	if len(values) == 0 {
		return 0, 0, false
	}
	return floats.Min(values), floats.Max(values), true
}

func toFloat64(data any) []float64 {
	switch d := data.(type) {
	case []uint8:
		return convert(d)
	case []int8:
		return convert(d)
	case []uint16:
		return convert(d)
	case []int16:
		return convert(d)
	case []uint32:
		return convert(d)
	case []int32:
		return convert(d)
	default:
		return nil
	}
}

func convert[T uint8 | int8 | uint16 | int16 | uint32 | int32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
