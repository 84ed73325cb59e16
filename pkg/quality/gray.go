package quality

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// grayPlane holds a single-channel float view of an image, the working
// representation for the Laplacian and statistics below.
type grayPlane struct {
	pix  []float64
	w, h int
}

// toGray converts an image to a float grayscale plane.
func toGray(img image.Image) grayPlane {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()

	plane := grayPlane{pix: make([]float64, w*h), w: w, h: h}
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			// Grayscale output has equal RGB channels.
			plane.pix[y*w+x] = float64(row[x*4])
		}
	}
	return plane
}

// laplacian applies the 4-neighbour Laplacian kernel. Border pixels are left
// at zero, matching the zero-padded response of the source system.
func (p grayPlane) laplacian() grayPlane {
	out := grayPlane{pix: make([]float64, p.w*p.h), w: p.w, h: p.h}
	for y := 1; y < p.h-1; y++ {
		for x := 1; x < p.w-1; x++ {
			i := y*p.w + x
			out.pix[i] = p.pix[i-p.w] + p.pix[i+p.w] + p.pix[i-1] + p.pix[i+1] - 4*p.pix[i]
		}
	}
	return out
}

// meanStd returns the mean and population standard deviation of the plane.
func (p grayPlane) meanStd() (mean, std float64) {
	n := float64(len(p.pix))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range p.pix {
		sum += v
	}
	mean = sum / n

	var sq float64
	for _, v := range p.pix {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}
