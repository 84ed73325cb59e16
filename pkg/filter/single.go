package filter

import (
	"image"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// Acceptance thresholds for the single-subject decision.
const (
	singleMinScore      = 60
	singleMinQuality    = 40
	singleMinConfidence = 0.2

	// A score gap below this is treated as ambiguous and the tie-break
	// kicks in.
	singleTieGap = 15
)

// SingleResolver reduces a multi-candidate result to the one face most
// likely to be the expected single subject, or to nothing when no candidate
// is convincing enough.
type SingleResolver struct {
	log *logrus.Entry
}

// NewSingleResolver creates a single-person resolver.
func NewSingleResolver(logger *logrus.Logger) *SingleResolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &SingleResolver{log: logger.WithField("component", "single")}
}

type scoredCandidate struct {
	candidate face.Candidate
	score     float64
}

// Resolve picks the best single face. A lone candidate of reasonable
// quality passes through unchanged; otherwise every candidate is scored and
// the winner must clear strict minimums or the result is empty.
func (r *SingleResolver) Resolve(candidates []face.Candidate, img image.Image) []face.Candidate {
	if len(candidates) == 0 || img == nil {
		return nil
	}

	if len(candidates) == 1 {
		c := candidates[0]
		if c.RegionQuality > 30 && c.Confidence > 0.3 {
			return candidates
		}
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, scoredCandidate{
			candidate: c,
			score:     singlePersonScore(c, img),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	best := scored[0]
	if best.score < singleMinScore ||
		best.candidate.RegionQuality < singleMinQuality ||
		best.candidate.Confidence < singleMinConfidence {
		r.log.WithField("score", best.score).Info("no candidate convincing enough for single subject")
		return nil
	}

	// Ambiguous top pair: prefer the clearly larger face.
	if len(scored) > 1 {
		second := scored[1]
		gap := best.score - second.score
		if gap < singleTieGap &&
			second.candidate.Box.Area() >= int(1.5*float64(best.candidate.Box.Area())) {
			r.log.WithField("gap", gap).Info("ambiguous scores, preferring larger face")
			best = second
		}
	}

	return []face.Candidate{best.candidate}
}

// singlePersonScore rates how likely a candidate is the main subject of a
// single-person photo. Components: region quality (up to 40), confidence
// (up to 20), relative size (up to 20), centering (up to 10) and aspect
// closeness (up to 10).
func singlePersonScore(c face.Candidate, img image.Image) float64 {
	bounds := img.Bounds()
	imageW, imageH := bounds.Dx(), bounds.Dy()

	quality := c.RegionQuality
	if !c.RegionQualityKnown {
		quality = 50
	}

	score := math.Min(40, quality*0.4)
	score += math.Min(20, c.Confidence*20)

	areaRatio := float64(c.Box.Area()) / float64(imageW*imageH)
	switch {
	case areaRatio >= 0.05 && areaRatio <= 0.30:
		score += 20
	case areaRatio >= 0.03 && areaRatio <= 0.50:
		score += 15
	case areaRatio > 0.50:
		score += 5
	default:
		score += 2
	}

	center := c.Box.Center()
	dx := (float64(center.X) - float64(imageW)/2) / float64(imageW)
	dy := (float64(center.Y) - float64(imageH)/2) / float64(imageH)
	centerDistance := math.Sqrt(dx*dx + dy*dy)
	score += math.Max(0, 10*(1-centerDistance*2))

	ratio := c.Box.AspectRatio()
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		score += 10
	case ratio >= 0.6 && ratio <= 1.4:
		score += 7
	default:
		score += 2
	}

	return score
}
