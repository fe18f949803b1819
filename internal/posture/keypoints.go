// Package posture implements sitting-posture classification and the
// alarm state machine for the Postura monitoring pipeline.
package posture

import (
	"errors"
	"fmt"
)

// Landmark names required by the calibrator and classifier.
const (
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
)

// RequiredLandmarks lists the landmark names every KeypointSet must carry.
var RequiredLandmarks = []string{
	LeftEar, RightEar,
	LeftShoulder, RightShoulder,
	LeftEye, RightEye,
}

// ErrInvalidKeypoints is returned when a keypoint set is missing required
// landmarks or has non-positive frame dimensions. Callers should skip the
// frame.
var ErrInvalidKeypoints = errors.New("invalid keypoints")

// Point is a 2D landmark position normalized to [0,1] frame coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// KeypointSet is an immutable snapshot of the named landmarks used by the
// classifier, together with the pixel dimensions of the frame they were
// detected in.
type KeypointSet struct {
	points map[string]Point
	width  int
	height int
}

// NewKeypointSet builds a KeypointSet from named normalized landmarks and
// the source frame's pixel dimensions. All six required landmarks must be
// present and the dimensions strictly positive; a partial set is rejected
// with ErrInvalidKeypoints.
func NewKeypointSet(points map[string]Point, width, height int) (*KeypointSet, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame dimensions %dx%d", ErrInvalidKeypoints, width, height)
	}

	for _, name := range RequiredLandmarks {
		if _, ok := points[name]; !ok {
			return nil, fmt.Errorf("%w: missing landmark %q", ErrInvalidKeypoints, name)
		}
	}

	copied := make(map[string]Point, len(points))
	for name, p := range points {
		copied[name] = p
	}

	return &KeypointSet{points: copied, width: width, height: height}, nil
}

// Landmark returns the named landmark.
func (k *KeypointSet) Landmark(name string) Point {
	return k.points[name]
}

// Width returns the source frame width in pixels.
func (k *KeypointSet) Width() int { return k.width }

// Height returns the source frame height in pixels.
func (k *KeypointSet) Height() int { return k.height }

// midY returns the pixel-space vertical midpoint of two landmarks.
func (k *KeypointSet) midY(a, b string) float64 {
	return (k.points[a].Y + k.points[b].Y) / 2 * float64(k.height)
}

// midX returns the pixel-space horizontal midpoint of two landmarks.
func (k *KeypointSet) midX(a, b string) float64 {
	return (k.points[a].X + k.points[b].X) / 2 * float64(k.width)
}
