package privatetags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/mrsinham/dicombids/internal/dicom"
)

// philipsPrivateElements generates Philips private tags, including a private
// sequence whose items are themselves private.
func philipsPrivateElements(rng *rand.Rand) []*dicom.Element {
	scaleSlope := fmt.Sprintf("%.10f", rng.Float64()*100+1.0)
	scaleIntercept := fmt.Sprintf("%.10f", rng.Float64()*10-5.0)

	item := []*dicom.Element{
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x2005, Element: 0x0011}, "LO", []string{"Philips MR Imaging DD 005"}),
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x2005, Element: 0x1100}, "DS", []string{scaleSlope}),
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x2005, Element: 0x1101}, "DS", []string{scaleIntercept}),
	}

	return []*dicom.Element{
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x2001, Element: 0x0010}, "LO", []string{"Philips Imaging DD 001"}),
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x2005, Element: 0x0010}, "LO", []string{"Philips MR Imaging DD 001"}),
		dcm.MustNewPrivateElement(tag.Tag{Group: 0x2005, Element: 0x100E}, "SQ", [][]*dicom.Element{item}),
	}
}
