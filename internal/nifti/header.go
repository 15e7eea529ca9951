// Package nifti writes single-file NIfTI-1 volumes (.nii.gz).
//
// Header layout follows the official nifti1.h definition,
// https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h
package nifti

import "strings"

const (
	// HeaderSize is the value of sizeof_hdr for NIfTI-1.
	HeaderSize = 348
	// VoxOffset is where voxel data starts in a single-file image: the header
	// plus the four extension bytes.
	VoxOffset = 352
)

// Datatype codes (NIFTI_TYPE_*).
const (
	DTUint8  int16 = 2
	DTInt16  int16 = 4
	DTInt32  int16 = 8
	DTRGB24  int16 = 128
	DTInt8   int16 = 256
	DTUint16 int16 = 512
	DTUint32 int16 = 768
)

// Transform codes (NIFTI_XFORM_*).
const (
	XFormUnknown     int16 = 0
	XFormScannerAnat int16 = 1
	XFormAlignedAnat int16 = 2
)

// UnitsMM is NIFTI_UNITS_MM.
const UnitsMM = 2

// magic marks a single-file image, "n+1\0".
var magic = [4]byte{'n', '+', '1', 0}

// Header is the 348-byte NIfTI-1 header.
//
// Type translation from the C header:
//
//	C     Go
//	-------------
//	int   int32
//	float float32
//	short int16
//	char  int8 / byte
type Header struct {
	SizeOfHdr          int32    // Must be 348
	UnusedDataType     [10]byte // Unused
	UnusedDbName       [18]byte // Unused
	UnusedExtents      int32    // Unused
	UnusedSessionError int16    // Unused
	UnusedRegular      byte     // Unused
	DimInfo            int8     // MRI slice ordering

	Dim           [8]int16   // Data array dimensions
	IntentP1      float32    // 1st intent parameter
	IntentP2      float32    // 2nd intent parameter
	IntentP3      float32    // 3rd intent parameter
	IntentCode    int16      // NIFTI_INTENT_* code
	DataType      int16      // Defines data type
	BitPix        int16      // Number bits/voxel
	SliceStart    int16      // First slice index
	PixDim        [8]float32 // Grid spacing
	VoxOffset     float32    // Offset into .nii file
	SclSlope      float32    // Data scaling: slope
	SclInter      float32    // Data scaling: offset
	SliceEnd      int16      // Last slice index
	SliceCode     int8       // Slice timing order
	XYZTUnits     int8       // Units of pixdim[1..4]
	CalMax        float32    // Max display intensity
	CalMin        float32    // Min display intensity
	SliceDuration float32    // Time for 1 slice
	TOffset       float32    // Time axis shift
	UnusedGlmax   int32      // Unused
	UnusedGlmin   int32      // Unused

	Descrip [80]byte // Any text you like
	AuxFile [24]byte // Auxiliary filename

	QFormCode int16 // NIFTI_XFORM_* code
	SFormCode int16 // NIFTI_XFORM_* code

	QuaternB float32 // Quaternion b params
	QuaternC float32 // Quaternion c params
	QuaternD float32 // Quaternion d params
	QOffsetX float32 // Quaternion x shift
	QOffsetY float32 // Quaternion y shift
	QOffsetZ float32 // Quaternion z shift

	SRowX [4]float32 // 1st row affine transform
	SRowY [4]float32 // 2nd row affine transform
	SRowZ [4]float32 // 3rd row affine transform

	IntentName [16]byte // 'name' or meaning of data

	Magic [4]byte // Must be "ni1\0" or "n+1\0"
}

// Description returns the descrip field without its NUL padding.
func (h *Header) Description() string {
	return strings.TrimRight(string(h.Descrip[:]), "\x00")
}

// Shape returns the used dimensions, dim[1..dim[0]].
func (h *Header) Shape() []int {
	n := int(h.Dim[0])
	if n < 0 || n > 7 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = int(h.Dim[i+1])
	}
	return out
}

// bitsPerVoxel returns bitpix for a datatype code, 0 when unknown.
func bitsPerVoxel(datatype int16) int16 {
	switch datatype {
	case DTUint8, DTInt8:
		return 8
	case DTInt16, DTUint16:
		return 16
	case DTInt32, DTUint32:
		return 32
	case DTRGB24:
		return 24
	default:
		return 0
	}
}
