package detect_test

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/adaptive-face/pkg/detect"
	"github.com/smegmarip/adaptive-face/pkg/face"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// stubBackend is a scriptable detector for tests.
type stubBackend struct {
	name   string
	detect func(img image.Image, minConfidence float64) ([]face.Candidate, error)
	closed bool
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Detect(img image.Image, minConfidence float64) ([]face.Candidate, error) {
	if s.detect == nil {
		return nil, nil
	}
	return s.detect(img, minConfidence)
}

func (s *stubBackend) Close() error {
	s.closed = true
	return nil
}

func fixedBackend(name string, candidates []face.Candidate) *stubBackend {
	return &stubBackend{
		name: name,
		detect: func(image.Image, float64) ([]face.Candidate, error) {
			return candidates, nil
		},
	}
}

func candidatesOf(n int) []face.Candidate {
	out := make([]face.Candidate, n)
	for i := range out {
		out[i] = face.Candidate{
			Box:        face.Box{X1: i * 100, Y1: 0, X2: i*100 + 50, Y2: 50},
			Confidence: 0.9,
		}
	}
	return out
}

func TestRegistryLoadsOnce(t *testing.T) {
	r := detect.NewRegistry(testLogger())

	var constructed atomic.Int32
	r.Register(detect.RoleFast, func() (detect.Backend, error) {
		constructed.Add(1)
		return fixedBackend("fast", nil), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := r.Backend(detect.RoleFast)
			assert.NoError(t, err)
			assert.NotNil(t, b)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), constructed.Load())
	assert.True(t, r.Loaded(detect.RoleFast))
}

func TestRegistryUnknownRole(t *testing.T) {
	r := detect.NewRegistry(testLogger())

	_, err := r.Backend(detect.RoleAccurate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, face.ErrDetectorUnavailable))
}

func TestRegistryFailureNotMemoized(t *testing.T) {
	r := detect.NewRegistry(testLogger())

	attempts := 0
	r.Register(detect.RoleFallback, func() (detect.Backend, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("model file locked")
		}
		return fixedBackend("pigo", nil), nil
	})

	_, err := r.Backend(detect.RoleFallback)
	require.Error(t, err)
	assert.True(t, errors.Is(err, face.ErrDetectorUnavailable))
	assert.False(t, r.Loaded(detect.RoleFallback))

	b, err := r.Backend(detect.RoleFallback)
	require.NoError(t, err)
	assert.Equal(t, "pigo", b.Name())
	assert.Equal(t, 2, attempts)
}

func TestRegistryRegisterReplacesLoadedBackend(t *testing.T) {
	r := detect.NewRegistry(testLogger())

	r.Register(detect.RoleFast, func() (detect.Backend, error) {
		return fixedBackend("first", nil), nil
	})
	_, err := r.Backend(detect.RoleFast)
	require.NoError(t, err)
	require.True(t, r.Loaded(detect.RoleFast))

	r.Register(detect.RoleFast, func() (detect.Backend, error) {
		return fixedBackend("second", nil), nil
	})
	assert.False(t, r.Loaded(detect.RoleFast))

	b, err := r.Backend(detect.RoleFast)
	require.NoError(t, err)
	assert.Equal(t, "second", b.Name())
}

func TestRegistryCloseReleasesBackends(t *testing.T) {
	r := detect.NewRegistry(testLogger())

	backend := fixedBackend("fast", nil)
	r.Register(detect.RoleFast, func() (detect.Backend, error) {
		return backend, nil
	})
	_, err := r.Backend(detect.RoleFast)
	require.NoError(t, err)

	r.Close()

	assert.True(t, backend.closed)
	assert.False(t, r.Loaded(detect.RoleFast))
	assert.True(t, r.Has(detect.RoleFast), "factory registration survives Close")
}

func TestRegistryRoles(t *testing.T) {
	r := detect.NewRegistry(testLogger())
	r.Register(detect.RoleFast, func() (detect.Backend, error) { return fixedBackend("fast", nil), nil })
	r.Register(detect.RoleFallback, func() (detect.Backend, error) { return fixedBackend("pigo", nil), nil })

	assert.ElementsMatch(t, []string{detect.RoleFast, detect.RoleFallback}, r.Roles())
}
