package sample

import (
	"image"

	"github.com/suyashkumar/dicom/pkg/frame"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText burns text into the centre of a 16-bit frame, white with a black
// outline, scaled to about 30% of the frame width. maxValue is the brightest
// value the frame's BitsStored allows.
func drawText(nf *frame.NativeFrame[uint16], width, height int, text string, maxValue int) {
	if text == "" || width == 0 || height == 0 {
		return
	}

	face := basicfont.Face7x13
	baseWidth := font.MeasureString(face, text).Ceil()
	const baseHeight = 13

	textImg := image.NewAlpha(image.Rect(0, 0, baseWidth, baseHeight))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(baseHeight)},
	}
	drawer.DrawString(text)

	scale := max(float64(width)*0.3/float64(baseWidth), 1.0)
	scaledWidth := int(float64(baseWidth) * scale)
	scaledHeight := int(float64(baseHeight) * scale)

	scaled := image.NewAlpha(image.Rect(0, 0, scaledWidth, scaledHeight))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Over, nil)

	x0 := (width - scaledWidth) / 2
	y0 := (height - scaledHeight) / 2
	set := func(x, y int, v uint16) {
		if x >= 0 && x < width && y >= 0 && y < height {
			nf.RawData[y*width+x] = v
		}
	}

	outline := max(1, scaledHeight/10)
	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			if scaled.AlphaAt(sx, sy).A == 0 {
				continue
			}
			for dx := -outline; dx <= outline; dx++ {
				for dy := -outline; dy <= outline; dy++ {
					if dx*dx+dy*dy <= outline*outline {
						set(x0+sx+dx, y0+sy+dy, 0)
					}
				}
			}
		}
	}

	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			a := scaled.AlphaAt(sx, sy).A
			if a == 0 {
				continue
			}
			set(x0+sx, y0+sy, uint16(int(a)*maxValue/0xff))
		}
	}
}
