package face

import "errors"

// Stage failure taxonomy. Every failure degrades locally to "contributes
// nothing"; the pipeline itself never aborts and an empty result is not an
// error. The sentinels exist so tests can tell a degraded stage apart from a
// legitimately empty one.
var (
	// ErrImageLoad marks unreadable input. The pipeline maps it to an
	// empty result.
	ErrImageLoad = errors.New("image load failed")

	// ErrDetectorUnavailable marks a backend that could not be
	// constructed. The tier selector falls back or returns empty.
	ErrDetectorUnavailable = errors.New("detector unavailable")

	// ErrInvalidCandidate marks a malformed bounding box. Such candidates
	// are silently discarded.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrQualityAssessment marks a failed quality pass. The assessor
	// substitutes a neutral score of 50.
	ErrQualityAssessment = errors.New("quality assessment failed")
)
