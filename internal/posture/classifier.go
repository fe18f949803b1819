package posture

import (
	"errors"
	"image"
)

// ErrUncalibrated is returned when classification is attempted before any
// successful calibration. Callers should suppress classification and show
// a "please calibrate" state instead.
var ErrUncalibrated = errors.New("posture: not calibrated")

// Sensitivity bounds for the operator control. Higher is stricter.
const (
	MinSensitivity = 1
	MaxSensitivity = 10
)

// Verdict is the per-frame classification result. It is derived purely
// from its inputs and never mutated.
type Verdict struct {
	Bad      bool `json:"bad"`
	Hunching bool `json:"hunching"`
	Sinking  bool `json:"sinking"`

	// Diagnostic metrics, in pixel units of the classified frame.
	NeckLength float64 `json:"neckLength"`
	NeckLimit  float64 `json:"neckLimit"`
	EyeHeight  float64 `json:"eyeHeight"`
	EyeLimit   float64 `json:"eyeLimit"`

	// Pixel-space ear and shoulder midpoints for overlay rendering only;
	// they carry no classification semantics.
	EarAnchor      image.Point `json:"earAnchor"`
	ShoulderAnchor image.Point `json:"shoulderAnchor"`
}

// thresholdFactor maps sensitivity to the fraction of the baseline neck
// length below which the posture counts as hunching: 0.68 at sensitivity
// 1 up to 0.95 at sensitivity 10.
func thresholdFactor(sensitivity int) float64 {
	return 0.65 + float64(sensitivity)*0.03
}

// dropTolerance maps sensitivity to how many pixels the eye midline may
// sink below the baseline before the posture counts as sinking: 110 at
// sensitivity 1 down to 20 at sensitivity 10.
//
// The tolerance is pixel-space and not resolution independent; it was
// tuned for 480p capture. Recalibrate after changing the capture
// resolution instead of assuming the values carry over.
func dropTolerance(sensitivity int) float64 {
	return 120 - float64(sensitivity)*10
}

// Classify evaluates one frame's keypoints against the calibrated
// baseline at the given sensitivity. It is a pure function of its three
// inputs: identical inputs always yield an identical verdict, and no
// state is kept between frames.
//
// Fails with ErrUncalibrated when the baseline was never calibrated.
func Classify(ks *KeypointSet, baseline Baseline, sensitivity int) (Verdict, error) {
	if !baseline.Calibrated() {
		return Verdict{}, ErrUncalibrated
	}

	earY := ks.midY(LeftEar, RightEar)
	shoulderY := ks.midY(LeftShoulder, RightShoulder)
	eyeY := ks.midY(LeftEye, RightEye)

	neckLength := shoulderY - earY
	neckLimit := baseline.NeckLength * thresholdFactor(sensitivity)
	hunching := neckLength < neckLimit

	eyeLimit := baseline.EyeHeight + dropTolerance(sensitivity)
	sinking := eyeY > eyeLimit

	return Verdict{
		Bad:        hunching || sinking,
		Hunching:   hunching,
		Sinking:    sinking,
		NeckLength: neckLength,
		NeckLimit:  neckLimit,
		EyeHeight:  eyeY,
		EyeLimit:   eyeLimit,
		EarAnchor: image.Point{
			X: int(ks.midX(LeftEar, RightEar)),
			Y: int(earY),
		},
		ShoulderAnchor: image.Point{
			X: int(ks.midX(LeftShoulder, RightShoulder)),
			Y: int(shoulderY),
		},
	}, nil
}
