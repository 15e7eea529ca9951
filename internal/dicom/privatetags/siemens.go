package privatetags

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
	"github.com/mrsinham/dicombids/internal/dicom/modalities"
)

// CSA header tags.
var (
	CSAImageHeaderInfo  = tag.Tag{Group: 0x0029, Element: 0x1010}
	CSASeriesHeaderInfo = tag.Tag{Group: 0x0029, Element: 0x1020}
)

// csaElement is one entry of a CSA header.
type csaElement struct {
	Name     string
	VM       int32
	VR       string
	SyngoDT  int32
	NumItems int32
	Values   []string
}

// buildCSAHeader encodes CSA elements in the "SV10" binary format written by
// Siemens scanners.
func buildCSAHeader(elements []csaElement) []byte {
	var buf bytes.Buffer

	buf.WriteString("SV10")
	buf.Write([]byte{0x04, 0x03, 0x02, 0x01})

	// binary.Write to bytes.Buffer never fails.
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(elements)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0x4D))

	for _, elem := range elements {
		name := make([]byte, 64)
		copy(name, elem.Name)
		buf.Write(name)

		_ = binary.Write(&buf, binary.LittleEndian, elem.VM)

		vr := make([]byte, 4)
		copy(vr, elem.VR)
		buf.Write(vr)

		_ = binary.Write(&buf, binary.LittleEndian, elem.SyngoDT)
		_ = binary.Write(&buf, binary.LittleEndian, elem.NumItems)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(0x4D))

		for i := int32(0); i < elem.NumItems; i++ {
			var val []byte
			if i < int32(len(elem.Values)) {
				val = []byte(elem.Values[i])
			}

			// Item length, repeated four times.
			itemLen := uint32(len(val))
			for j := 0; j < 4; j++ {
				_ = binary.Write(&buf, binary.LittleEndian, itemLen)
			}

			buf.Write(val)
			if padding := (4 - len(val)%4) % 4; padding > 0 {
				buf.Write(make([]byte, padding))
			}
		}
	}

	return buf.Bytes()
}

// csaImageHeader describes one image. Mosaic and diffusion entries follow
// the acquisition.
func csaImageHeader(acq Acquisition, rng *rand.Rand) []byte {
	mosaic := 1
	if acq.Sequence.Expected.Folder == modalities.Func {
		mosaic = max(acq.Sequence.Frames, 1)
	}
	gradient := []string{"0.0", "0.0", "0.0"}
	if acq.bValue() > 0 {
		gradient = []string{"0.57735", "0.57735", "0.57735"}
	}

	elements := []csaElement{
		{Name: "NumberOfImagesInMosaic", VM: 1, VR: "US", SyngoDT: 10, NumItems: 1, Values: []string{fmt.Sprint(mosaic)}},
		{Name: "SliceNormalVector", VM: 3, VR: "FD", SyngoDT: 4, NumItems: 3, Values: []string{"0.0", "0.0", "1.0"}},
		{Name: "DiffusionGradientDirection", VM: 3, VR: "FD", SyngoDT: 4, NumItems: 3, Values: gradient},
		{Name: "B_value", VM: 1, VR: "IS", SyngoDT: 6, NumItems: 1, Values: []string{fmt.Sprint(acq.bValue())}},
		{Name: "SliceMeasurementDuration", VM: 1, VR: "DS", SyngoDT: 3, NumItems: 1, Values: []string{"265000.0"}},
		{Name: "BandwidthPerPixelPhaseEncode", VM: 1, VR: "FD", SyngoDT: 4, NumItems: 1, Values: []string{"45.455"}},
		{Name: "RealDwellTime", VM: 1, VR: "IS", SyngoDT: 6, NumItems: 1, Values: []string{"5700"}},
		{Name: "ImaCoilString", VM: 1, VR: "LO", SyngoDT: 19, NumItems: 1, Values: []string{"HEA;HEP"}},
	}

	return append(buildCSAHeader(elements), randomBytes(rng, 512, 1024)...)
}

// csaSeriesHeader describes the protocol of the series.
func csaSeriesHeader(acq Acquisition, rng *rand.Rand) []byte {
	elements := []csaElement{
		{Name: "UsedPatientWeight", VM: 1, VR: "DS", SyngoDT: 3, NumItems: 1, Values: []string{"70.0"}},
		{Name: "MrProtocolVersion", VM: 1, VR: "IS", SyngoDT: 6, NumItems: 1, Values: []string{"1"}},
		{Name: "SequenceFileName", VM: 1, VR: "LO", SyngoDT: 19, NumItems: 1, Values: []string{acq.Sequence.SequenceName}},
		{Name: "MrProtocol", VM: 1, VR: "LO", SyngoDT: 19, NumItems: 1, Values: []string{"### ASCCONV BEGIN ###"}},
		{Name: "Isocentered", VM: 1, VR: "IS", SyngoDT: 6, NumItems: 1, Values: []string{"1"}},
		{Name: "TablePositionOrigin", VM: 3, VR: "FD", SyngoDT: 4, NumItems: 3, Values: []string{"0.0", "0.0", "0.0"}},
	}

	return append(buildCSAHeader(elements), randomBytes(rng, 256, 512)...)
}

// nonImageSequence mimics the Siemens private sequence at (0029,1102) that
// fragile readers fail on.
func nonImageSequence(rng *rand.Rand) *dicom.Element {
	item := []*dicom.Element{
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x0011}, "LO", []string{"SIEMENS CSA NON-IMAGE"}),
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1100}, "OB", randomBytes(rng, 1024, 2048)),
	}
	return dcm.MustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1102}, "SQ", [][]*dicom.Element{item})
}

// siemensCSAElements generates all Siemens CSA private elements.
func siemensCSAElements(acq Acquisition, rng *rand.Rand) []*dicom.Element {
	return []*dicom.Element{
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x0010}, "LO", []string{"SIEMENS CSA HEADER"}),
		dcm.MustNewPrivateElement(CSAImageHeaderInfo, "OB", csaImageHeader(acq, rng)),
		dcm.MustNewPrivateElement(CSASeriesHeaderInfo, "OB", csaSeriesHeader(acq, rng)),
		nonImageSequence(rng),
	}
}

// randomBytes returns between minLen and minLen+spread-1 random bytes, padded
// to an even length.
func randomBytes(rng *rand.Rand, minLen, spread int) []byte {
	n := minLen + rng.IntN(spread)
	n += n % 2
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.IntN(256))
	}
	return out
}
