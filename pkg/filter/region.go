package filter

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// Gradient magnitudes above this count as edge pixels, approximating the
// source system's Canny upper threshold.
const edgeMagnitudeThreshold = 100.0

// RegionQuality scores how face-like the pixels inside a box are, 0-100.
// It blends local contrast, edge density and brightness centering. The
// second return is false when the region cannot be analyzed (empty or
// out-of-frame crop).
func RegionQuality(img image.Image, box face.Box) (float64, bool) {
	if img == nil || !box.Valid() {
		return 0, false
	}

	rect := box.Rect().Intersect(img.Bounds())
	if rect.Dx() < 2 || rect.Dy() < 2 {
		return 0, false
	}

	gray := imaging.Grayscale(imaging.Crop(img, rect))
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	pix := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			pix[y*w+x] = float64(row[x*4])
		}
	}

	mean, std := meanStd(pix)
	edgeRatio := edgePixelRatio(pix, w, h)

	contrastScore := face.Clamp(std*2, 0, 100)
	edgeScore := face.Clamp(edgeRatio*1000, 0, 100)
	brightnessScore := face.Clamp(100-math.Abs(mean-127), 0, 100)

	score := 0.4*contrastScore + 0.4*edgeScore + 0.2*brightnessScore
	return face.Clamp(score, 0, 100), true
}

// edgePixelRatio estimates the fraction of edge pixels using Sobel gradient
// magnitude.
func edgePixelRatio(pix []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}

	edges := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			gx := pix[i+1-w] + 2*pix[i+1] + pix[i+1+w] -
				pix[i-1-w] - 2*pix[i-1] - pix[i-1+w]
			gy := pix[i+w-1] + 2*pix[i+w] + pix[i+w+1] -
				pix[i-w-1] - 2*pix[i-w] - pix[i-w+1]
			if math.Hypot(gx, gy) > edgeMagnitudeThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64(w*h)
}

func meanStd(pix []float64) (mean, std float64) {
	n := float64(len(pix))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range pix {
		sum += v
	}
	mean = sum / n

	var sq float64
	for _, v := range pix {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}
