package filter_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smegmarip/adaptive-face/pkg/face"
	"github.com/smegmarip/adaptive-face/pkg/filter"
)

func TestClassifyScene(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		count    int
		expected face.Scenario
	}{
		{"square one face", 1000, 1000, 1, face.ScenarioPortrait},
		{"square two faces", 500, 500, 2, face.ScenarioPortrait},
		{"wide three faces", 1920, 1080, 3, face.ScenarioGroup},
		{"wide many faces", 1920, 1080, 8, face.ScenarioGroup},
		{"large near-square many faces", 1200, 1000, 6, face.ScenarioClassroom},
		{"wide pair", 800, 400, 2, face.ScenarioPair},
		{"wide single", 800, 400, 1, face.ScenarioGeneral},
		{"small near-square many faces", 600, 500, 7, face.ScenarioGeneral},
		{"no candidates", 1000, 1000, 0, face.ScenarioNoFaces},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h))
			ctx := filter.ClassifyScene(img, tt.count)

			assert.Equal(t, tt.expected, ctx.Scenario)
			assert.Equal(t, tt.count, ctx.RawCount)
			assert.Equal(t, tt.w*tt.h, ctx.Area)
			assert.InDelta(t, float64(tt.w)/float64(tt.h), ctx.AspectRatio, 1e-9)
		})
	}
}

func TestClassifySceneNilImage(t *testing.T) {
	ctx := filter.ClassifyScene(nil, 3)
	assert.Equal(t, face.ScenarioNoFaces, ctx.Scenario)
	assert.Equal(t, 3, ctx.RawCount)
	assert.Equal(t, 0, ctx.Area)
}
