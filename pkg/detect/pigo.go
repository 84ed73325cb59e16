package detect

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// PigoBackend is the classical fallback detector: a pure-Go cascade
// classifier that needs no model server or native runtime. It trades
// accuracy for availability, which is exactly what the last progressive
// attempt wants.
type PigoBackend struct {
	classifier *pigo.Pigo

	MinSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
}

// NewPigoBackend loads and unpacks the binary cascade file.
func NewPigoBackend(cascadePath string) (*PigoBackend, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade file: %w", err)
	}

	return &PigoBackend{
		classifier:   classifier,
		MinSize:      20,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
	}, nil
}

// Name returns the backend name.
func (b *PigoBackend) Name() string {
	return "pigo"
}

// Detect runs the cascade over the grayscale image and clusters the raw
// detections.
func (b *PigoBackend) Detect(img image.Image, minConfidence float64) ([]face.Candidate, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", face.ErrInvalidCandidate)
	}

	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	if cols < b.MinSize || rows < b.MinSize {
		return nil, nil
	}

	pixels := pigo.RgbToGrayscale(img)

	cParams := pigo.CascadeParams{
		MinSize:     b.MinSize,
		MaxSize:     minInt(cols, rows),
		ShiftFactor: b.ShiftFactor,
		ScaleFactor: b.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := b.classifier.RunCascade(cParams, 0.0)
	dets = b.classifier.ClusterDetections(dets, b.IoUThreshold)

	candidates := make([]face.Candidate, 0, len(dets))
	for _, det := range dets {
		half := det.Scale / 2
		box := face.Box{
			X1: det.Col - half,
			Y1: det.Row - half,
			X2: det.Col + half,
			Y2: det.Row + half,
		}
		// Clip to image bounds, keep only boxes that survive with extent.
		box.X1 = maxInt(box.X1, 0)
		box.Y1 = maxInt(box.Y1, 0)
		box.X2 = minInt(box.X2, cols)
		box.Y2 = minInt(box.Y2, rows)
		if !box.Valid() {
			continue
		}

		// Cascade scores run roughly 0-100; squash onto [0,1].
		confidence := face.Clamp(float64(det.Q)/10, 0, 1)
		if confidence < minConfidence {
			continue
		}

		candidates = append(candidates, face.Candidate{
			Box:        box,
			Confidence: confidence,
			Source:     b.Name(),
		})
	}

	return candidates, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
