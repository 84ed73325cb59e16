package filter

import (
	"image"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// Strategy is a named (overlap threshold, quality threshold) filtering
// configuration.
type Strategy struct {
	Name             string
	OverlapThreshold float64
	QualityThreshold float64
}

// Strategies returns the fixed strategy catalog. Order matters: strategies
// are evaluated in this order and score ties go to the earlier entry, which
// keeps repeated runs deterministic.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "conservative", OverlapThreshold: 0.3, QualityThreshold: 20},
		{Name: "balanced", OverlapThreshold: 0.4, QualityThreshold: 15},
		{Name: "aggressive", OverlapThreshold: 0.5, QualityThreshold: 10},
	}
}

// Evaluator re-filters candidates under every catalog strategy, scores each
// outcome against the scene context and keeps the winner's candidate set.
type Evaluator struct {
	log *logrus.Entry
}

// NewEvaluator creates a strategy evaluator.
func NewEvaluator(logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{log: logger.WithField("component", "strategies")}
}

// Evaluate returns the winning strategy, its filtered candidate set, and a
// report per strategy for diagnostics.
func (e *Evaluator) Evaluate(candidates []face.Candidate, img image.Image, scene face.SceneContext) (Strategy, []face.Candidate, []face.StrategyReport) {
	strategies := Strategies()
	reports := make([]face.StrategyReport, 0, len(strategies))

	var winner Strategy
	var winnerFaces []face.Candidate
	bestScore := math.Inf(-1)

	for _, strategy := range strategies {
		result, report := e.run(strategy, candidates, img, scene)
		reports = append(reports, report)

		if report.Score > bestScore {
			bestScore = report.Score
			winner = strategy
			winnerFaces = result
		}

		e.log.WithFields(logrus.Fields{
			"strategy": strategy.Name,
			"faces":    report.Count,
			"score":    report.Score,
		}).Debug("strategy evaluated")
	}

	e.log.WithFields(logrus.Fields{
		"strategy": winner.Name,
		"scenario": scene.Scenario,
		"faces":    len(winnerFaces),
	}).Info("strategy selected")

	return winner, winnerFaces, reports
}

// run applies one strategy and scores the outcome.
func (e *Evaluator) run(strategy Strategy, candidates []face.Candidate, img image.Image, scene face.SceneContext) ([]face.Candidate, face.StrategyReport) {
	// Recompute per-candidate quality under this strategy. Qualities of
	// every input candidate feed the consistency metric, whether or not
	// the candidate survives the threshold.
	scored := make([]face.Candidate, 0, len(candidates))
	qualities := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		quality, ok := RegionQuality(img, c.Box)
		if !ok {
			quality = 0
		}
		c.StrategyQuality = quality
		scored = append(scored, c)
		qualities = append(qualities, quality)
	}

	avgQuality, stdQuality := meanStd(qualities)
	consistency := avgQuality - stdQuality
	if len(qualities) == 0 {
		avgQuality, consistency = 0, 0
	}

	passed := make([]face.Candidate, 0, len(scored))
	for _, c := range scored {
		if c.StrategyQuality >= strategy.QualityThreshold {
			passed = append(passed, c)
		}
	}

	kept, _ := ResolveOverlaps(passed, strategy.OverlapThreshold)

	report := face.StrategyReport{
		Name:        strategy.Name,
		Count:       len(kept),
		AvgQuality:  avgQuality,
		Consistency: consistency,
		Score:       scoreStrategy(len(kept), avgQuality, consistency, scene),
	}
	return kept, report
}

// scoreStrategy combines consistency with scene-context bonuses and an
// over-detection penalty.
func scoreStrategy(count int, avgQuality, consistency float64, scene face.SceneContext) float64 {
	score := 0.4 * consistency

	switch {
	case scene.Scenario == face.ScenarioPortrait && count == 1:
		score += 30
	case scene.Scenario == face.ScenarioGroup && count >= 2:
		score += 20
	case scene.Scenario == face.ScenarioClassroom && count >= 3:
		score += 25
	}

	expectedMax := maxInt(1, scene.Area/50000)
	if count > 2*expectedMax {
		score -= 15
	}

	if avgQuality > 60 {
		score += 10
	} else if avgQuality > 40 {
		score += 5
	}

	return score
}

// AdjustRelativeConfidence rescales confidences by each candidate's quality
// relative to the best one in the set. Only meaningful when more than one
// candidate survived strategy selection.
func AdjustRelativeConfidence(candidates []face.Candidate) []face.Candidate {
	if len(candidates) <= 1 {
		return candidates
	}

	maxQuality := 0.0
	for _, c := range candidates {
		if c.StrategyQuality > maxQuality {
			maxQuality = c.StrategyQuality
		}
	}
	if maxQuality <= 0 {
		return candidates
	}

	out := make([]face.Candidate, len(candidates))
	for i, c := range candidates {
		relative := c.StrategyQuality / maxQuality
		c.Confidence = math.Min(0.99, c.Confidence*(0.5+0.5*relative))
		out[i] = c
	}
	return out
}
