package quality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/adaptive-face/pkg/quality"
)

func TestEnhanceIdentityBand(t *testing.T) {
	e := quality.NewEnhancer(nil)
	img := noisyImage(64, 64)

	out := e.Enhance(img, 70)
	assert.Same(t, img, out)

	out = e.Enhance(img, 95)
	assert.Same(t, img, out)
}

func TestEnhanceNilImage(t *testing.T) {
	e := quality.NewEnhancer(nil)
	assert.Nil(t, e.Enhance(nil, 10))
}

func TestEnhanceBandsPreserveDimensions(t *testing.T) {
	e := quality.NewEnhancer(nil)
	img := noisyImage(80, 60)

	for _, composite := range []float64{10, 40, 60} {
		out := e.Enhance(img, composite)
		require.NotNil(t, out, "composite %v", composite)
		assert.NotSame(t, img, out, "composite %v", composite)
		assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx(), "composite %v", composite)
		assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy(), "composite %v", composite)
	}
}

func TestEnhanceDoesNotMutateInput(t *testing.T) {
	e := quality.NewEnhancer(nil)
	img := noisyImage(64, 64)

	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	e.Enhance(img, 20)

	assert.Equal(t, before, img.Pix)
}
