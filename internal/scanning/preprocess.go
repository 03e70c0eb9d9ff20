package scanning

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Preprocess prepares a photo for OCR. The zero value leaves it untouched.
type Preprocess struct {
	// MaxWidth downscales wider images, keeping the aspect ratio. 0 disables.
	MaxWidth int
	// Threshold turns pixels at or above this luminance white and the rest
	// black. 0 disables.
	Threshold uint8
}

// DefaultPreprocess is tuned for thermal-paper receipts shot on a phone
func DefaultPreprocess() Preprocess {
	return Preprocess{MaxWidth: 1600, Threshold: 165}
}

func (p Preprocess) isNoop() bool {
	return p.MaxWidth <= 0 && p.Threshold == 0
}

// Apply runs the downscale and the black/white threshold
func (p Preprocess) Apply(img image.Image) image.Image {
	if p.isNoop() {
		return img
	}

	if p.MaxWidth > 0 && img.Bounds().Dx() > p.MaxWidth {
		img = imaging.Resize(img, p.MaxWidth, 0, imaging.Lanczos)
	}
	if p.Threshold == 0 {
		return img
	}

	threshold := float64(p.Threshold)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		if lum >= threshold {
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		}
		return color.NRGBA{A: c.A}
	})
}
