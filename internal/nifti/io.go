package nifti

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// ErrNotNifti is returned when a stream does not start with a NIfTI-1 header.
var ErrNotNifti = errors.New("not a NIfTI-1 file")

// Encode writes v as an uncompressed single-file NIfTI-1 image.
func Encode(w io.Writer, v *Volume) error {
	h, err := v.Header()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	// No extensions.
	if _, err := bw.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	want := v.Dims[0] * v.Dims[1] * v.Dims[2]
	if v.DataType == DTRGB24 {
		want *= 3
	}
	if got := sampleCount(v.Data); got != want {
		return fmt.Errorf("volume has %d samples, dimensions describe %d", got, want)
	}
	if err := binary.Write(bw, binary.LittleEndian, v.Data); err != nil {
		return fmt.Errorf("write voxels: %w", err)
	}
	return bw.Flush()
}

// WriteFile writes v to filename, gzip-compressed. A partially written file is
// removed on error.
func WriteFile(filename string, v *Volume) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(filename)
		}
	}()

	zw, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		return err
	}
	if err = Encode(zw, v); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

// Decode reads a single-file NIfTI-1 image and returns its header and raw
// voxel bytes.
func Decode(r io.Reader) (*Header, []byte, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if h.SizeOfHdr != HeaderSize || h.Magic != magic {
		return nil, nil, ErrNotNifti
	}

	skip := int64(h.VoxOffset) - HeaderSize
	if skip < 0 {
		return nil, nil, fmt.Errorf("invalid vox_offset %v", h.VoxOffset)
	}
	if _, err := io.CopyN(io.Discard, r, skip); err != nil {
		return nil, nil, fmt.Errorf("skip extensions: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read voxels: %w", err)
	}
	return &h, data, nil
}

// ReadFile reads a .nii or .nii.gz file.
func ReadFile(filename string) (*Header, []byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", filename, err)
	}

	var r io.Reader = br
	if head[0] == 0x1f && head[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", filename, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return Decode(r)
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
