// Package detector provides pose landmark detection for the posture
// monitor.
package detector

import (
	"fmt"

	"github.com/ayusman/postura/internal/posture"
)

// Pose landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose          = 0
	LeftEyeInner  = 1
	LeftEye       = 2
	LeftEyeOuter  = 3
	RightEyeInner = 4
	RightEye      = 5
	RightEyeOuter = 6
	LeftEar       = 7
	RightEar      = 8
	MouthLeft     = 9
	MouthRight    = 10
	LeftShoulder  = 11
	RightShoulder = 12
	NumLandmarks  = 33
)

// MinVisibility is the visibility score below which a landmark is treated
// as missing.
const MinVisibility = 0.5

// Point3D is a detected landmark in normalized [0,1] image coordinates
// with a visibility score.
type Point3D struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// PoseLandmarks holds one detected person's 33 pose landmarks.
type PoseLandmarks struct {
	Points [NumLandmarks]Point3D `json:"points"`
	Score  float64               `json:"score"`
}

// classifierLandmarks maps the classifier's landmark names to pose
// indices.
var classifierLandmarks = map[string]int{
	posture.LeftEar:       LeftEar,
	posture.RightEar:      RightEar,
	posture.LeftShoulder:  LeftShoulder,
	posture.RightShoulder: RightShoulder,
	posture.LeftEye:       LeftEye,
	posture.RightEye:      RightEye,
}

// Keypoints converts a detected pose into the classifier's keypoint set
// for a frame of the given pixel dimensions. Returns
// posture.ErrInvalidKeypoints when there is no pose or any required
// landmark is occluded; callers skip such frames.
func Keypoints(p *PoseLandmarks, width, height int) (*posture.KeypointSet, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no pose detected", posture.ErrInvalidKeypoints)
	}

	points := make(map[string]posture.Point, len(classifierLandmarks))
	for name, idx := range classifierLandmarks {
		lm := p.Points[idx]
		if lm.Visibility < MinVisibility {
			return nil, fmt.Errorf("%w: landmark %q occluded (visibility %.2f)",
				posture.ErrInvalidKeypoints, name, lm.Visibility)
		}
		points[name] = posture.Point{X: lm.X, Y: lm.Y}
	}

	return posture.NewKeypointSet(points, width, height)
}
