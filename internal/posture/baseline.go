package posture

// Baseline is the calibrated posture reference captured while the subject
// sits upright. Values are in pixel units of the calibration frame. A
// Baseline is immutable once produced and replaced wholesale by the next
// calibration.
type Baseline struct {
	// NeckLength is the vertical distance from the ear midline to the
	// shoulder midline.
	NeckLength float64 `json:"neckLength"`
	// EyeHeight is the Y position of the eye midline on screen.
	EyeHeight float64 `json:"eyeHeight"`
}

// Calibrated reports whether this baseline came from a calibration pass.
// The zero value (NeckLength == 0) means uncalibrated and the classifier
// refuses to operate on it.
func (b Baseline) Calibrated() bool {
	return b.NeckLength != 0
}

// Calibrate derives a Baseline from a single frame of the subject sitting
// upright. Pure function; installing the result into a session is the
// caller's job.
func Calibrate(ks *KeypointSet) Baseline {
	earY := ks.midY(LeftEar, RightEar)
	shoulderY := ks.midY(LeftShoulder, RightShoulder)
	eyeY := ks.midY(LeftEye, RightEye)

	return Baseline{
		NeckLength: shoulderY - earY,
		EyeHeight:  eyeY,
	}
}
