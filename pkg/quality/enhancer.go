package quality

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// Enhancement bands. Images scoring at or above bandIdentity are returned
// untouched.
const (
	bandFull     = 30
	bandModerate = 50
	bandIdentity = 70
)

// Enhancer conditionally improves an image before detection. Enhancement is
// a pure function of the input image and its composite quality score; a new
// image is produced and the input is never mutated.
type Enhancer struct {
	log *logrus.Entry
}

// NewEnhancer creates an image enhancer.
func NewEnhancer(logger *logrus.Logger) *Enhancer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Enhancer{log: logger.WithField("component", "enhancer")}
}

// Enhance applies the enhancement chain appropriate for the composite score.
// Each step is independently best-effort: a failing step yields its input
// unchanged and the chain continues.
func (e *Enhancer) Enhance(img image.Image, composite float64) image.Image {
	if img == nil || composite >= bandIdentity {
		return img
	}

	out := img
	switch {
	case composite < bandFull:
		out = e.step(out, "contrast", enhanceContrast)
		out = e.step(out, "denoise", denoise)
		out = e.step(out, "sharpen", sharpen)
		out = e.step(out, "sharpen_extra", sharpen)
	case composite < bandModerate:
		out = e.step(out, "contrast", enhanceContrast)
		out = e.step(out, "denoise", denoise)
		out = e.step(out, "sharpen", sharpen)
	default:
		out = e.step(out, "contrast", enhanceContrast)
	}
	return out
}

// step runs one enhancement operation, recovering to the unmodified input if
// the operation panics or returns nothing.
func (e *Enhancer) step(img image.Image, name string, op func(image.Image) image.Image) (out image.Image) {
	out = img
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("step", name).Warnf("enhancement step failed: %v", r)
			out = img
		}
	}()
	if res := op(img); res != nil {
		out = res
	}
	return out
}

// enhanceContrast applies an adaptive sigmoid contrast curve, the closest
// imaging analog of the source system's CLAHE pass.
func enhanceContrast(img image.Image) image.Image {
	return imaging.AdjustSigmoid(img, 0.5, 3.0)
}

// denoise applies a light gaussian blur to suppress sensor noise before
// sharpening.
func denoise(img image.Image) image.Image {
	return imaging.Blur(img, 0.8)
}

// sharpen applies an unsharp-mask style sharpening pass.
func sharpen(img image.Image) image.Image {
	return imaging.Sharpen(img, 1.0)
}
