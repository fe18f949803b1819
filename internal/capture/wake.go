package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// WakeDetector decides whether anything is moving in front of the camera
// using frame differencing with Gaussian blur for noise reduction. The
// pipeline runs it while idle so that pose detection only wakes up when
// someone is actually at the desk.
type WakeDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// Wake detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultWakeThreshold is the percentage of changed pixels that counts
	// as someone arriving at the desk.
	DefaultWakeThreshold = 1.0
)

// NewWakeDetector creates a new WakeDetector with the given threshold.
// The threshold is the percentage of pixels that must change to count
// as activity. Values less than or equal to 0 fall back to the default.
func NewWakeDetector(threshold float64) *WakeDetector {
	if threshold <= 0 {
		threshold = DefaultWakeThreshold
	}
	return &WakeDetector{
		threshold:   threshold,
		prevGray:    gocv.NewMat(),
		initialized: false,
	}
}

// Detect analyzes a frame for activity compared to the previous frame.
// Returns whether activity was seen and the percentage of pixels that changed.
//
// Algorithm:
// 1. Convert frame to grayscale
// 2. Apply Gaussian blur (21x21) to reduce noise
// 3. If first frame, store as baseline and return false
// 4. Calculate absolute difference with previous frame
// 5. Threshold the difference (threshold=25)
// 6. Count non-zero pixels / total pixels = changePercent
// 7. Return changePercent > threshold
func (w *WakeDetector) Detect(frame *gocv.Mat) (bool, float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	// Convert to grayscale
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	// Apply Gaussian blur to reduce noise
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	// If first frame, store as baseline
	if !w.initialized {
		blurred.CopyTo(&w.prevGray)
		w.initialized = true
		return false, 0
	}

	// Calculate absolute difference
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, w.prevGray, &diff)

	// Apply binary threshold
	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	// Count non-zero pixels
	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()

	// Calculate change percentage
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	// Update previous frame
	blurred.CopyTo(&w.prevGray)

	return changePercent > w.threshold, changePercent
}

// Reset clears the detector state, allowing it to be reused
// with a new baseline frame.
func (w *WakeDetector) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.prevGray.Empty() {
		w.prevGray.Close()
		w.prevGray = gocv.NewMat()
	}
	w.initialized = false
}

// Close releases resources used by the wake detector.
func (w *WakeDetector) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.prevGray.Empty() {
		w.prevGray.Close()
		w.prevGray = gocv.NewMat()
	}
	w.initialized = false
}

// SetThreshold sets the activity threshold.
// Values less than or equal to 0 are ignored.
func (w *WakeDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.threshold = threshold
}
