package filter

import (
	"fmt"
	"image"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

const (
	// DefaultOverlapThreshold is the stage-5 IoU cutoff; strategies may
	// override it during evaluation.
	DefaultOverlapThreshold = 0.3

	// DefaultMaxFaces caps the final candidate list.
	DefaultMaxFaces = 3

	// regionQualityFloor is the minimum region quality a candidate must
	// exceed to survive stage 4.
	regionQualityFloor = 20

	// edgeConfidencePenalty is applied to candidates hugging the frame.
	edgeConfidencePenalty = 0.3
)

// Filter removes false positives through fixed-order stages, each consuming
// the survivors of the previous one. Every discard carries a
// machine-readable reason.
type Filter struct {
	MaxFaces         int
	OverlapThreshold float64

	log *logrus.Entry
}

// NewFilter creates a candidate filter with default thresholds.
func NewFilter(logger *logrus.Logger) *Filter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Filter{
		MaxFaces:         DefaultMaxFaces,
		OverlapThreshold: DefaultOverlapThreshold,
		log:              logger.WithField("component", "filter"),
	}
}

// Apply runs the full stage sequence over the raw candidates.
func (f *Filter) Apply(candidates []face.Candidate, img image.Image) ([]face.Candidate, []face.Removal) {
	if len(candidates) == 0 || img == nil {
		return nil, nil
	}

	var removed []face.Removal

	survivors := f.sanitize(candidates, img, &removed)
	survivors = f.filterBySize(survivors, img, &removed)
	survivors = f.filterByAspectRatio(survivors, &removed)
	survivors = f.adjustEdgePositions(survivors, img)
	survivors = f.filterByRegionQuality(survivors, img, &removed)

	kept, overlapRemoved := ResolveOverlaps(survivors, f.OverlapThreshold)
	removed = append(removed, overlapRemoved...)

	final := f.cap(kept, &removed)

	f.log.WithFields(logrus.Fields{
		"raw":     len(candidates),
		"final":   len(final),
		"removed": len(removed),
	}).Info("candidate filtering complete")

	return final, removed
}

// sanitize drops malformed boxes and clips the rest to image bounds so every
// retained candidate is valid and in-frame.
func (f *Filter) sanitize(candidates []face.Candidate, img image.Image, removed *[]face.Removal) []face.Candidate {
	bounds := img.Bounds()
	out := make([]face.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Box.Valid() {
			*removed = append(*removed, face.Removal{Candidate: c, Stage: "sanitize", Reason: "invalid_box"})
			continue
		}
		rect := c.Box.Rect().Intersect(bounds)
		if rect.Empty() {
			*removed = append(*removed, face.Removal{Candidate: c, Stage: "sanitize", Reason: "outside_image"})
			continue
		}
		c.Box = face.Box{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y}
		out = append(out, c)
	}
	return out
}

// filterBySize drops candidates that are implausibly small or large for the
// image resolution.
func (f *Filter) filterBySize(candidates []face.Candidate, img image.Image, removed *[]face.Removal) []face.Candidate {
	bounds := img.Bounds()
	minDim := minInt(bounds.Dx(), bounds.Dy())
	imageArea := bounds.Dx() * bounds.Dy()

	minSize := maxInt(30, int(0.02*float64(minDim)))
	maxSize := int(0.8 * float64(minDim))
	maxArea := int(0.25 * float64(imageArea))

	out := make([]face.Candidate, 0, len(candidates))
	for _, c := range candidates {
		w, h := c.Box.Width(), c.Box.Height()
		switch {
		case w < minSize || h < minSize:
			*removed = append(*removed, face.Removal{
				Candidate: c, Stage: "size",
				Reason: fmt.Sprintf("too_small_%dx%d", w, h),
			})
		case w > maxSize || h > maxSize:
			*removed = append(*removed, face.Removal{
				Candidate: c, Stage: "size",
				Reason: fmt.Sprintf("too_large_%dx%d", w, h),
			})
		case c.Box.Area() > maxArea:
			*removed = append(*removed, face.Removal{
				Candidate: c, Stage: "size",
				Reason: "area_exceeds_25pct",
			})
		default:
			out = append(out, c)
		}
	}
	return out
}

// filterByAspectRatio drops candidates whose proportions are not face-like.
func (f *Filter) filterByAspectRatio(candidates []face.Candidate, removed *[]face.Removal) []face.Candidate {
	out := make([]face.Candidate, 0, len(candidates))
	for _, c := range candidates {
		ratio := c.Box.AspectRatio()
		if ratio < 0.6 || ratio > 1.4 {
			*removed = append(*removed, face.Removal{
				Candidate: c, Stage: "aspect_ratio",
				Reason: fmt.Sprintf("aspect_ratio_%.2f", ratio),
			})
			continue
		}
		out = append(out, c)
	}
	return out
}

// adjustEdgePositions downweights candidates hugging the frame. Edge
// artifacts are common but real faces do appear near borders, so the
// candidate is kept with reduced confidence rather than dropped.
func (f *Filter) adjustEdgePositions(candidates []face.Candidate, img image.Image) []face.Candidate {
	bounds := img.Bounds()
	margin := int(0.05 * float64(minInt(bounds.Dx(), bounds.Dy())))

	out := make([]face.Candidate, 0, len(candidates))
	for _, c := range candidates {
		nearEdge := c.Box.X1 < bounds.Min.X+margin || c.Box.Y1 < bounds.Min.Y+margin ||
			c.Box.X2 > bounds.Max.X-margin || c.Box.Y2 > bounds.Max.Y-margin
		if nearEdge {
			c.Confidence *= edgeConfidencePenalty
		}
		out = append(out, c)
	}
	return out
}

// filterByRegionQuality scores the pixels inside each box, scales confidence
// by the result and drops candidates whose region does not look like a face.
func (f *Filter) filterByRegionQuality(candidates []face.Candidate, img image.Image, removed *[]face.Removal) []face.Candidate {
	out := make([]face.Candidate, 0, len(candidates))
	for _, c := range candidates {
		quality, ok := RegionQuality(img, c.Box)
		if !ok {
			*removed = append(*removed, face.Removal{
				Candidate: c, Stage: "region_quality", Reason: "empty_region",
			})
			continue
		}

		c.RegionQuality = quality
		c.RegionQualityKnown = true
		c.Confidence *= quality / 100

		if quality <= regionQualityFloor {
			*removed = append(*removed, face.Removal{
				Candidate: c, Stage: "region_quality",
				Reason: fmt.Sprintf("low_region_quality_%.1f", quality),
			})
			continue
		}
		out = append(out, c)
	}
	return out
}

// ResolveOverlaps greedily accepts candidates in descending confidence
// order, discarding any whose IoU with an accepted candidate exceeds the
// threshold. Shared by the stage filter and the strategy evaluator.
func ResolveOverlaps(candidates []face.Candidate, threshold float64) ([]face.Candidate, []face.Removal) {
	if len(candidates) <= 1 {
		return candidates, nil
	}

	sorted := make([]face.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var kept []face.Candidate
	var removed []face.Removal
	for _, c := range sorted {
		overlaps := false
		for _, accepted := range kept {
			if c.Box.IoU(accepted.Box) > threshold {
				overlaps = true
				break
			}
		}
		if overlaps {
			removed = append(removed, face.Removal{
				Candidate: c, Stage: "overlap", Reason: "overlaps_higher_confidence",
			})
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

// cap keeps the top MaxFaces candidates by confidence.
func (f *Filter) cap(candidates []face.Candidate, removed *[]face.Removal) []face.Candidate {
	if f.MaxFaces <= 0 || len(candidates) <= f.MaxFaces {
		return candidates
	}

	sorted := make([]face.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	for _, c := range sorted[f.MaxFaces:] {
		*removed = append(*removed, face.Removal{Candidate: c, Stage: "cap", Reason: "over_cap"})
	}
	return sorted[:f.MaxFaces]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
