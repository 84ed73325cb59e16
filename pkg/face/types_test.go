package face_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

func TestBoxDimensions(t *testing.T) {
	box := face.Box{X1: 10, Y1: 20, X2: 110, Y2: 170}

	assert.Equal(t, 100, box.Width())
	assert.Equal(t, 150, box.Height())
	assert.Equal(t, 15000, box.Area())
	assert.Equal(t, image.Point{X: 60, Y: 95}, box.Center())
	assert.InDelta(t, 100.0/150.0, box.AspectRatio(), 1e-9)
	assert.True(t, box.Valid())
}

func TestBoxValid(t *testing.T) {
	tests := []struct {
		name  string
		box   face.Box
		valid bool
	}{
		{"normal box", face.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, true},
		{"zero width", face.Box{X1: 10, Y1: 0, X2: 10, Y2: 10}, false},
		{"zero height", face.Box{X1: 0, Y1: 10, X2: 10, Y2: 10}, false},
		{"inverted", face.Box{X1: 10, Y1: 10, X2: 0, Y2: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.box.Valid())
		})
	}
}

func TestBoxIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     face.Box
		expected float64
	}{
		{
			name:     "identical boxes",
			a:        face.Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        face.Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			a:        face.Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        face.Box{X1: 20, Y1: 20, X2: 30, Y2: 30},
			expected: 0.0,
		},
		{
			name:     "touching edges",
			a:        face.Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        face.Box{X1: 10, Y1: 0, X2: 20, Y2: 10},
			expected: 0.0,
		},
		{
			name:     "half contained",
			a:        face.Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        face.Box{X1: 0, Y1: 0, X2: 10, Y2: 20},
			expected: 0.5,
		},
		{
			name:     "partial overlap",
			a:        face.Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        face.Box{X1: 5, Y1: 0, X2: 15, Y2: 10},
			expected: 1.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.a.IoU(tt.b), 1e-9)
			// IoU is symmetric.
			assert.InDelta(t, tt.expected, tt.b.IoU(tt.a), 1e-9)
		})
	}
}

func TestBoxWithin(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	assert.True(t, face.Box{X1: 10, Y1: 10, X2: 90, Y2: 90}.Within(bounds))
	assert.True(t, face.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}.Within(bounds))
	assert.False(t, face.Box{X1: -1, Y1: 0, X2: 50, Y2: 50}.Within(bounds))
	assert.False(t, face.Box{X1: 50, Y1: 50, X2: 101, Y2: 90}.Within(bounds))
}

func TestFinalScenario(t *testing.T) {
	tests := []struct {
		count    int
		expected string
	}{
		{0, "no_faces"},
		{1, "single_person"},
		{2, "pair"},
		{3, "small_group"},
		{5, "small_group"},
		{6, "large_group"},
		{15, "large_group"},
		{16, "crowd"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, face.FinalScenario(tt.count), "count %d", tt.count)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, face.Clamp(-5, 0, 100))
	assert.Equal(t, 100.0, face.Clamp(150, 0, 100))
	assert.Equal(t, 42.0, face.Clamp(42, 0, 100))
}
