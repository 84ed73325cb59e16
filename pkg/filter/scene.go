package filter

import (
	"image"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// classroomAreaThreshold is the pixel area above which a many-face image is
// read as a classroom or event shot.
const classroomAreaThreshold = 1_000_000

// ClassifyScene labels the image with the most likely subject arrangement
// from its geometry and the candidate count entering strategy evaluation.
func ClassifyScene(img image.Image, rawCount int) face.SceneContext {
	ctx := face.SceneContext{RawCount: rawCount, Scenario: face.ScenarioGeneral}
	if img == nil {
		ctx.Scenario = face.ScenarioNoFaces
		return ctx
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	ctx.Area = w * h
	if h > 0 {
		ctx.AspectRatio = float64(w) / float64(h)
	}

	switch {
	case rawCount == 0:
		ctx.Scenario = face.ScenarioNoFaces
	case ctx.AspectRatio > 0.7 && ctx.AspectRatio < 1.3 && rawCount <= 2:
		ctx.Scenario = face.ScenarioPortrait
	case ctx.AspectRatio > 1.3 && rawCount >= 3:
		ctx.Scenario = face.ScenarioGroup
	case ctx.Area > classroomAreaThreshold && rawCount >= 5:
		ctx.Scenario = face.ScenarioClassroom
	case rawCount == 2:
		ctx.Scenario = face.ScenarioPair
	default:
		ctx.Scenario = face.ScenarioGeneral
	}

	return ctx
}
