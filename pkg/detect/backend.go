package detect

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// Backend roles. The tier selector addresses backends by role, not by
// concrete implementation.
const (
	RoleFast     = "fast"
	RoleAccurate = "accurate"
	RoleFallback = "fallback"
)

// Backend produces raw face candidates for an image. Implementations may
// return an error; callers treat a failed backend as one that found nothing.
type Backend interface {
	Name() string
	Detect(img image.Image, minConfidence float64) ([]face.Candidate, error)
}

// Factory constructs a backend on first use.
type Factory func() (Backend, error)

// Registry owns the detector backends for a pipeline. Backends are
// constructed lazily on first use and memoized; concurrent first use is
// serialized by a mutex so each backend loads exactly once. Construction
// failures are not memoized, allowing a backend to recover on a later call.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	backends  map[string]Backend
	log       *logrus.Entry
}

// NewRegistry creates an empty backend registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		factories: make(map[string]Factory),
		backends:  make(map[string]Backend),
		log:       logger.WithField("component", "registry"),
	}
}

// Register binds a factory to a role. Registering over an existing role
// replaces the factory and drops any previously loaded backend.
func (r *Registry) Register(role string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[role] = f
	delete(r.backends, role)
}

// Has reports whether a factory is registered for the role.
func (r *Registry) Has(role string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[role]
	return ok
}

// Loaded reports whether the backend for the role has been constructed.
func (r *Registry) Loaded(role string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.backends[role]
	return ok
}

// Roles returns the registered role names.
func (r *Registry) Roles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := make([]string, 0, len(r.factories))
	for role := range r.factories {
		roles = append(roles, role)
	}
	return roles
}

// Backend returns the backend for a role, constructing it on first use.
func (r *Registry) Backend(role string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[role]; ok {
		return b, nil
	}

	factory, ok := r.factories[role]
	if !ok {
		return nil, fmt.Errorf("%w: no %s backend registered", face.ErrDetectorUnavailable, role)
	}

	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s backend init: %v", face.ErrDetectorUnavailable, role, err)
	}

	r.log.WithField("role", role).WithField("backend", b.Name()).Info("detector backend loaded")
	r.backends[role] = b
	return b, nil
}

// Close releases any loaded backends that hold resources.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for role, b := range r.backends {
		if closer, ok := b.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				r.log.WithField("role", role).WithError(err).Warn("backend close failed")
			}
		}
		delete(r.backends, role)
	}
}
