package face

import (
	"image"
	"math"
)

// Box represents face coordinates in the image. X2/Y2 are exclusive and a
// valid box always satisfies X2 > X1 and Y2 > Y1.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the bounding box width
func (b Box) Width() int {
	return b.X2 - b.X1
}

// Height returns the bounding box height
func (b Box) Height() int {
	return b.Y2 - b.Y1
}

// Area returns the area of the bounding box
func (b Box) Area() int {
	return b.Width() * b.Height()
}

// Center returns the center point of the bounding box
func (b Box) Center() image.Point {
	return image.Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// AspectRatio returns width divided by height, or 0 for a degenerate box.
func (b Box) AspectRatio() float64 {
	if b.Height() <= 0 {
		return 0
	}
	return float64(b.Width()) / float64(b.Height())
}

// Valid reports whether the box has positive extent on both axes.
func (b Box) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Within reports whether the box lies fully inside the given image bounds.
func (b Box) Within(bounds image.Rectangle) bool {
	return b.X1 >= bounds.Min.X && b.Y1 >= bounds.Min.Y &&
		b.X2 <= bounds.Max.X && b.Y2 <= bounds.Max.Y
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// IoU calculates Intersection over Union with another box
func (b Box) IoU(other Box) float64 {
	x1 := max(b.X1, other.X1)
	y1 := max(b.Y1, other.Y1)
	x2 := min(b.X2, other.X2)
	y2 := min(b.Y2, other.Y2)

	if x1 >= x2 || y1 >= y2 {
		return 0.0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := b.Area() + other.Area() - intersection

	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// Candidate is a proposed face region prior to final acceptance. Detectors
// create candidates with Box, Confidence and Source set; filter stages fill
// in the quality fields and may adjust Confidence, but never move the box.
type Candidate struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`

	// RegionQuality is set by the region-quality filter stage (0-100).
	RegionQuality      float64 `json:"region_quality,omitempty"`
	RegionQualityKnown bool    `json:"-"`

	// StrategyQuality is the per-strategy quality recomputed during
	// strategy evaluation (0-100).
	StrategyQuality float64 `json:"strategy_quality,omitempty"`
}

// QualityScore is the composite image quality assessment. All values are on
// a 0-100 scale; Composite is the weighted combination used for tier routing.
type QualityScore struct {
	Blur       float64 `json:"blur"`
	Noise      float64 `json:"noise"`
	Contrast   float64 `json:"contrast"`
	Brightness float64 `json:"brightness"`
	Composite  float64 `json:"composite"`
}

// Tier is a named detection configuration selected from the quality score.
type Tier string

const (
	TierFast             Tier = "fast"
	TierAccurate         Tier = "accurate"
	TierEnhancedAccurate Tier = "enhanced_accurate"
	TierProgressive      Tier = "progressive"
)

// Scenario is the coarse classification of how many subjects the image
// likely contains, derived from aspect ratio, pixel area and candidate count.
type Scenario string

const (
	ScenarioPortrait  Scenario = "portrait"
	ScenarioPair      Scenario = "pair"
	ScenarioGroup     Scenario = "group"
	ScenarioClassroom Scenario = "classroom"
	ScenarioGeneral   Scenario = "general"
	ScenarioNoFaces   Scenario = "no_faces"
)

// SceneContext describes the image-level context used to arbitrate between
// filtering strategies.
type SceneContext struct {
	AspectRatio float64  `json:"aspect_ratio"`
	Area        int      `json:"area"`
	RawCount    int      `json:"raw_count"`
	Scenario    Scenario `json:"likely_scenario"`
}

// Removal records a discarded candidate together with the filter stage that
// dropped it and a machine-readable reason.
type Removal struct {
	Candidate Candidate `json:"candidate"`
	Stage     string    `json:"stage"`
	Reason    string    `json:"reason"`
}

// StrategyReport captures how one filtering strategy performed during
// evaluation. Informational only.
type StrategyReport struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	AvgQuality  float64 `json:"avg_quality"`
	Consistency float64 `json:"consistency_score"`
	Score       float64 `json:"score"`
}

// Diagnostics describes how a detection result was produced. It is purely
// informational; downstream consumers only need the face list.
type Diagnostics struct {
	Quality       QualityScore     `json:"quality"`
	Tier          Tier             `json:"tier"`
	Strategy      string           `json:"strategy"`
	Scene         SceneContext     `json:"scene"`
	FinalScenario string           `json:"final_scenario"`
	RawCount      int              `json:"raw_count"`
	FilteredCount int              `json:"filtered_count"`
	FinalCount    int              `json:"final_count"`
	Removed       []Removal        `json:"removed,omitempty"`
	Strategies    []StrategyReport `json:"strategies,omitempty"`
}

// DetectionResult is the pipeline output: the final ordered candidate list
// plus diagnostics.
type DetectionResult struct {
	Faces       []Candidate `json:"faces"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// FinalScenario maps a final face count onto the reporting label used in
// diagnostics.
func FinalScenario(count int) string {
	switch {
	case count == 0:
		return "no_faces"
	case count == 1:
		return "single_person"
	case count == 2:
		return "pair"
	case count <= 5:
		return "small_group"
	case count <= 15:
		return "large_group"
	default:
		return "crowd"
	}
}

// Clamp bounds v to the [lo, hi] interval.
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
