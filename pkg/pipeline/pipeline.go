// Package pipeline wires quality assessment, tiered detection and candidate
// filtering into the single entry point callers use.
package pipeline

import (
	"image"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/internal/config"
	"github.com/smegmarip/adaptive-face/pkg/detect"
	"github.com/smegmarip/adaptive-face/pkg/face"
	"github.com/smegmarip/adaptive-face/pkg/filter"
	"github.com/smegmarip/adaptive-face/pkg/imageio"
	"github.com/smegmarip/adaptive-face/pkg/quality"
)

// Pipeline is the adaptive multi-tier face detection pipeline. It is safe to
// run concurrently for independent images: the only shared mutable state is
// the backend registry, which serializes lazy loads internally.
type Pipeline struct {
	cfg       *config.Config
	assessor  *quality.Assessor
	enhancer  *quality.Enhancer
	registry  *detect.Registry
	tiers     *detect.TierSelector
	filter    *filter.Filter
	evaluator *filter.Evaluator
	single    *filter.SingleResolver
	log       *logrus.Entry
}

// New creates a pipeline with backends built from the configuration.
func New(cfg *config.Config, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}

	registry := detect.NewRegistry(logger)
	if cfg.FastServiceURL != "" {
		url := cfg.FastServiceURL
		registry.Register(detect.RoleFast, func() (detect.Backend, error) {
			return detect.NewServiceBackend("fast", url), nil
		})
	}
	if cfg.AccurateServiceURL != "" {
		url := cfg.AccurateServiceURL
		registry.Register(detect.RoleAccurate, func() (detect.Backend, error) {
			return detect.NewServiceBackend("accurate", url), nil
		})
	}
	if cfg.PigoCascadePath != "" {
		path := cfg.PigoCascadePath
		registry.Register(detect.RoleFallback, func() (detect.Backend, error) {
			return detect.NewPigoBackend(path)
		})
	}

	return NewWithRegistry(cfg, registry, logger)
}

// NewWithRegistry creates a pipeline over a caller-provided backend
// registry.
func NewWithRegistry(cfg *config.Config, registry *detect.Registry, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	enhancer := quality.NewEnhancer(logger)
	tiers := detect.NewTierSelector(registry, enhancer, cfg.MinConfidence, logger)
	tiers.Greedy = cfg.GreedyProgressive

	candidateFilter := filter.NewFilter(logger)
	candidateFilter.MaxFaces = cfg.MaxFaces

	return &Pipeline{
		cfg:       cfg,
		assessor:  quality.NewAssessor(logger),
		enhancer:  enhancer,
		registry:  registry,
		tiers:     tiers,
		filter:    candidateFilter,
		evaluator: filter.NewEvaluator(logger),
		single:    filter.NewSingleResolver(logger),
		log:       logger.WithField("component", "pipeline"),
	}
}

// DetectFile loads an image file and detects faces in it. An unreadable
// file yields an empty result alongside the load error.
func (p *Pipeline) DetectFile(path string, expectSingle bool) (face.DetectionResult, error) {
	img, err := imageio.Load(path)
	if err != nil {
		p.log.WithError(err).Warn("image load failed, returning empty result")
		return emptyResult(), err
	}
	return p.DetectFaces(img, expectSingle), nil
}

// DetectFaces runs the full pipeline over one image. It never fails: every
// stage degrades to "contributes nothing" and an image with no faces is a
// valid empty result.
func (p *Pipeline) DetectFaces(img image.Image, expectSingle bool) face.DetectionResult {
	if img == nil || img.Bounds().Empty() {
		return emptyResult()
	}

	score := p.assessor.Assess(img)
	tier, raw := p.tiers.Run(img, score)

	result := face.DetectionResult{
		Diagnostics: face.Diagnostics{
			Quality:  score,
			Tier:     tier,
			RawCount: len(raw),
		},
	}

	if len(raw) == 0 {
		result.Diagnostics.Scene = filter.ClassifyScene(img, 0)
		result.Diagnostics.FinalScenario = face.FinalScenario(0)
		p.log.Info("no raw detections")
		return result
	}

	filtered, removed := p.filter.Apply(raw, img)
	result.Diagnostics.FilteredCount = len(filtered)
	result.Diagnostics.Removed = removed

	scene := filter.ClassifyScene(img, len(filtered))
	result.Diagnostics.Scene = scene

	if len(filtered) == 0 {
		result.Diagnostics.FinalScenario = face.FinalScenario(0)
		p.log.Info("all raw detections filtered out")
		return result
	}

	winner, faces, reports := p.evaluator.Evaluate(filtered, img, scene)
	result.Diagnostics.Strategy = winner.Name
	result.Diagnostics.Strategies = reports

	faces = filter.AdjustRelativeConfidence(faces)

	if expectSingle && len(faces) > 0 {
		faces = p.single.Resolve(faces, img)
	}

	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Confidence > faces[j].Confidence
	})

	result.Faces = faces
	result.Diagnostics.FinalCount = len(faces)
	result.Diagnostics.FinalScenario = face.FinalScenario(len(faces))

	p.log.WithFields(logrus.Fields{
		"raw":      len(raw),
		"final":    len(faces),
		"tier":     tier,
		"strategy": winner.Name,
		"scenario": scene.Scenario,
	}).Info("detection complete")

	return result
}

// BackendStatus describes one backend role.
type BackendStatus struct {
	Role       string `json:"role"`
	Configured bool   `json:"configured"`
	Loaded     bool   `json:"loaded"`
}

// Status is an observability snapshot of the pipeline.
type Status struct {
	Backends          []BackendStatus `json:"backends"`
	FallbackAvailable bool            `json:"fallback_available"`
	GreedyProgressive bool            `json:"greedy_progressive"`
	MinConfidence     float64         `json:"min_confidence"`
	MaxFaces          int             `json:"max_faces"`
}

// Status reports the current backend and threshold configuration.
func (p *Pipeline) Status() Status {
	roles := []string{detect.RoleFast, detect.RoleAccurate, detect.RoleFallback}
	backends := make([]BackendStatus, 0, len(roles))
	for _, role := range roles {
		backends = append(backends, BackendStatus{
			Role:       role,
			Configured: p.registry.Has(role),
			Loaded:     p.registry.Loaded(role),
		})
	}

	return Status{
		Backends:          backends,
		FallbackAvailable: p.registry.Has(detect.RoleFallback),
		GreedyProgressive: p.cfg.GreedyProgressive,
		MinConfidence:     p.cfg.MinConfidence,
		MaxFaces:          p.cfg.MaxFaces,
	}
}

// Close releases detector backend resources.
func (p *Pipeline) Close() {
	p.registry.Close()
}

func emptyResult() face.DetectionResult {
	return face.DetectionResult{
		Diagnostics: face.Diagnostics{
			Scene:         face.SceneContext{Scenario: face.ScenarioNoFaces},
			FinalScenario: face.FinalScenario(0),
		},
	}
}
