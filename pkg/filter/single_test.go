package filter_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/adaptive-face/pkg/face"
	"github.com/smegmarip/adaptive-face/pkg/filter"
)

func qualityCand(x1, y1, x2, y2 int, confidence, regionQuality float64) face.Candidate {
	c := cand(x1, y1, x2, y2, confidence)
	c.RegionQuality = regionQuality
	c.RegionQualityKnown = true
	return c
}

func TestResolveLoneCandidatePassesThrough(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))
	candidates := []face.Candidate{qualityCand(100, 100, 200, 200, 0.5, 45)}

	r := filter.NewSingleResolver(testLogger())
	out := r.Resolve(candidates, img)

	assert.Equal(t, candidates, out)
}

func TestResolveLoneWeakCandidateScored(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))

	// Too weak for the pass-through and scores nowhere near acceptance: a
	// tiny off-center box with poor quality.
	candidates := []face.Candidate{qualityCand(10, 10, 50, 50, 0.2, 20)}

	r := filter.NewSingleResolver(testLogger())
	assert.Nil(t, r.Resolve(candidates, img))
}

func TestResolvePicksDominantCandidate(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))

	dominant := qualityCand(375, 375, 625, 625, 0.9, 90)
	peripheral := qualityCand(100, 100, 200, 200, 0.5, 50)

	r := filter.NewSingleResolver(testLogger())
	out := r.Resolve([]face.Candidate{peripheral, dominant}, img)

	require.Len(t, out, 1)
	assert.Equal(t, dominant.Box, out[0].Box)
}

func TestResolveAmbiguousPrefersLargerFace(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))

	// Both centered and well-qualified; the score gap is small and the
	// second face covers at least 1.5x the area of the first.
	smaller := qualityCand(375, 375, 625, 625, 0.9, 90)
	larger := qualityCand(345, 345, 655, 655, 0.8, 80)

	r := filter.NewSingleResolver(testLogger())
	out := r.Resolve([]face.Candidate{smaller, larger}, img)

	require.Len(t, out, 1)
	assert.Equal(t, larger.Box, out[0].Box)
}

func TestResolveRejectsUnconvincingSet(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))

	candidates := []face.Candidate{
		qualityCand(50, 50, 120, 120, 0.15, 10),
		qualityCand(800, 800, 870, 870, 0.1, 15),
	}

	r := filter.NewSingleResolver(testLogger())
	assert.Nil(t, r.Resolve(candidates, img))
}

func TestResolveEmptyInput(t *testing.T) {
	r := filter.NewSingleResolver(testLogger())
	assert.Nil(t, r.Resolve(nil, image.NewNRGBA(image.Rect(0, 0, 100, 100))))
	assert.Nil(t, r.Resolve([]face.Candidate{cand(0, 0, 50, 50, 0.9)}, nil))
}
