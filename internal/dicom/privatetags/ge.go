package privatetags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
)

// gePrivateElements generates GE GEMS private tags.
func gePrivateElements(acq Acquisition, rng *rand.Rand) []*dicom.Element {
	softwareVersion := fmt.Sprintf("DV%d.%d_%d_M5", rng.IntN(10)+20, rng.IntN(10), rng.IntN(100))

	// GE stores the b-value plus 1e9 in the first of four values.
	diffusion := []string{
		fmt.Sprintf("%d", 1000000000+acq.bValue()),
		"0", "0", "0",
	}

	return []*dicom.Element{
		// Private creator blocks
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x0010}, "LO", []string{"GEMS_IDEN_01"}),
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x0043, Element: 0x0010}, "LO", []string{"GEMS_PARM_01"}),
		// Software version
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x10E3}, "LO", []string{softwareVersion}),
		// Slice b-value
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x0043, Element: 0x1039}, "IS", diffusion),
	}
}
