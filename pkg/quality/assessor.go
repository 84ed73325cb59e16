package quality

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// neutralScore is substituted whenever assessment cannot run. A middle score
// routes such images to the accurate tier rather than an extreme one.
const neutralScore = 50

// Assessor scores raw image quality on a 0-100 scale from four sub-metrics
// computed on the grayscale plane. Blur and noise both derive from the same
// Laplacian response; the formulas are kept as-is for parity with the source
// system.
type Assessor struct {
	log *logrus.Entry
}

// NewAssessor creates a quality assessor.
func NewAssessor(logger *logrus.Logger) *Assessor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Assessor{log: logger.WithField("component", "quality")}
}

// Assess computes the composite quality score for an image. It never fails:
// any internal problem degrades to a neutral score of 50.
func (a *Assessor) Assess(img image.Image) face.QualityScore {
	score, err := a.assess(img)
	if err != nil {
		a.log.WithError(err).Warn("quality assessment degraded to neutral score")
		return face.QualityScore{
			Blur:       neutralScore,
			Noise:      neutralScore,
			Contrast:   neutralScore,
			Brightness: neutralScore,
			Composite:  neutralScore,
		}
	}
	return score
}

func (a *Assessor) assess(img image.Image) (face.QualityScore, error) {
	if img == nil {
		return face.QualityScore{}, face.ErrQualityAssessment
	}
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return face.QualityScore{}, face.ErrQualityAssessment
	}

	gray := toGray(img)
	lap := gray.laplacian()

	grayMean, grayStd := gray.meanStd()
	_, lapStd := lap.meanStd()
	lapVar := lapStd * lapStd

	s := face.QualityScore{
		Blur:       face.Clamp(lapVar/10, 0, 100),
		Noise:      face.Clamp(100-lapStd/2, 0, 100),
		Contrast:   face.Clamp(grayStd/2, 0, 100),
		Brightness: face.Clamp(100-abs(grayMean-125)/2, 0, 100),
	}
	s.Composite = face.Clamp(
		0.3*s.Blur+0.25*s.Noise+0.25*s.Contrast+0.2*s.Brightness, 0, 100)

	return s, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
