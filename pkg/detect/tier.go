package detect

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// Tier thresholds on the composite quality score. The ranges are contiguous
// and cover [0,100] with no overlap.
const (
	fastThreshold     = 85
	accurateThreshold = 60
	enhancedThreshold = 30
)

// Enhancer is the slice of the enhancement surface the tier selector needs.
type Enhancer interface {
	Enhance(img image.Image, composite float64) image.Image
}

// SelectTier routes a composite quality score to a detection tier. Pure
// function, monotonic in the score.
func SelectTier(composite float64) face.Tier {
	switch {
	case composite >= fastThreshold:
		return face.TierFast
	case composite >= accurateThreshold:
		return face.TierAccurate
	case composite >= enhancedThreshold:
		return face.TierEnhancedAccurate
	default:
		return face.TierProgressive
	}
}

// progressiveAttempt is one (backend role, image variant) pair of the
// progressive tier's ordered sequence.
type progressiveAttempt struct {
	role     string
	enhanced bool
}

// progressiveOrder is fixed: raw fast, raw accurate, enhanced accurate, then
// the classical fallback on the raw image.
var progressiveOrder = []progressiveAttempt{
	{RoleFast, false},
	{RoleAccurate, false},
	{RoleAccurate, true},
	{RoleFallback, false},
}

// TierSelector routes an image to detector backends based on its quality
// score, enhancing first when the tier requires it and applying progressive
// fallback for the worst images. A failing backend contributes nothing and
// never aborts the run.
type TierSelector struct {
	registry      *Registry
	enhancer      Enhancer
	minConfidence float64

	// Greedy switches the progressive tier from best-of-all to
	// stop-at-first-non-empty. The two policies are never mixed.
	Greedy bool

	log *logrus.Entry
}

// NewTierSelector creates a tier selector over the given backend registry.
func NewTierSelector(registry *Registry, enhancer Enhancer, minConfidence float64, logger *logrus.Logger) *TierSelector {
	if logger == nil {
		logger = logrus.New()
	}
	return &TierSelector{
		registry:      registry,
		enhancer:      enhancer,
		minConfidence: minConfidence,
		log:           logger.WithField("component", "tiers"),
	}
}

// Run selects the tier for the score and produces raw candidates.
func (s *TierSelector) Run(img image.Image, score face.QualityScore) (face.Tier, []face.Candidate) {
	tier := SelectTier(score.Composite)

	var candidates []face.Candidate
	switch tier {
	case face.TierFast:
		candidates = s.detectWithFallback(RoleFast, img)
	case face.TierAccurate:
		candidates = s.detectWithFallback(RoleAccurate, img)
	case face.TierEnhancedAccurate:
		enhanced := s.enhance(img, score.Composite)
		candidates = s.detectWithFallback(RoleAccurate, enhanced)
	default:
		candidates = s.progressive(img, score.Composite)
	}

	s.log.WithFields(logrus.Fields{
		"tier":    tier,
		"quality": score.Composite,
		"raw":     len(candidates),
	}).Info("tier detection complete")

	return tier, candidates
}

// detectRole runs one backend, degrading any failure to an empty result.
func (s *TierSelector) detectRole(role string, img image.Image) []face.Candidate {
	backend, err := s.registry.Backend(role)
	if err != nil {
		s.log.WithField("role", role).WithError(err).Warn("backend unavailable")
		return nil
	}

	candidates, err := backend.Detect(img, s.minConfidence)
	if err != nil {
		s.log.WithField("role", role).WithError(err).Warn("backend detection failed")
		return nil
	}
	return candidates
}

// detectWithFallback runs the primary backend and, when it comes back empty
// and a fallback is configured, prefers any non-empty fallback result.
func (s *TierSelector) detectWithFallback(role string, img image.Image) []face.Candidate {
	candidates := s.detectRole(role, img)
	if len(candidates) > 0 || role == RoleFallback || !s.registry.Has(RoleFallback) {
		return candidates
	}

	if fallback := s.detectRole(RoleFallback, img); len(fallback) > 0 {
		s.log.WithField("primary", role).Info("empty primary result, using fallback detection")
		return fallback
	}
	return candidates
}

// progressive walks the ordered (backend, image-variant) attempts. Default
// policy scans every pair and keeps the largest result; the greedy variant
// stops at the first non-empty one.
func (s *TierSelector) progressive(img image.Image, composite float64) []face.Candidate {
	var best []face.Candidate
	var enhanced image.Image

	for _, attempt := range progressiveOrder {
		variant := img
		if attempt.enhanced {
			if enhanced == nil {
				enhanced = s.enhance(img, composite)
			}
			variant = enhanced
		}

		candidates := s.detectRole(attempt.role, variant)
		if len(candidates) > len(best) {
			best = candidates
		}
		if s.Greedy && len(candidates) > 0 {
			return candidates
		}
	}

	return best
}

func (s *TierSelector) enhance(img image.Image, composite float64) image.Image {
	if s.enhancer == nil {
		return img
	}
	if enhanced := s.enhancer.Enhance(img, composite); enhanced != nil {
		return enhanced
	}
	return img
}
