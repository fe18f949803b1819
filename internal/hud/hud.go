// Package hud draws the posture overlay onto camera frames.
package hud

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/postura/internal/posture"
)

var (
	colorGood   = color.RGBA{G: 255}
	colorBad    = color.RGBA{R: 255}
	colorAnchor = color.RGBA{R: 255, G: 255}
	colorWhite  = color.RGBA{R: 255, G: 255, B: 255}
	colorBlack  = color.RGBA{}
)

// StatusLabel returns the headline shown in the metrics box. Sinking wins
// over hunching when both trip, matching the display precedence of the
// metrics readout.
func StatusLabel(v *posture.Verdict) string {
	switch {
	case v.Sinking:
		return "SINKING!"
	case v.Hunching:
		return "HUNCHING!"
	default:
		return "GOOD"
	}
}

// Draw renders the posture overlay onto frame: the ear-to-shoulder
// skeleton line, anchor dots, a metrics box with the current and limit
// values, and a full-frame red border with a warning when posture is bad.
func Draw(frame *gocv.Mat, v *posture.Verdict) {
	if frame == nil || frame.Empty() || v == nil {
		return
	}

	w := frame.Cols()
	h := frame.Rows()

	lineColor := colorGood
	if v.Bad {
		lineColor = colorBad
	}

	gocv.Line(frame, v.EarAnchor, v.ShoulderAnchor, lineColor, 4)
	gocv.Circle(frame, v.EarAnchor, 6, colorAnchor, -1)
	gocv.Circle(frame, v.ShoulderAnchor, 6, colorAnchor, -1)

	// Metrics box
	box := image.Rect(10, 10, 340, 110)
	gocv.Rectangle(frame, box, colorBlack, -1)
	gocv.Rectangle(frame, box, colorWhite, 2)

	gocv.PutText(frame,
		fmt.Sprintf("Neck: %d (Min %d)", int(v.NeckLength), int(v.NeckLimit)),
		image.Pt(20, 35), gocv.FontHersheySimplex, 0.5, colorWhite, 1)
	gocv.PutText(frame,
		fmt.Sprintf("Eyes: %d (Max %d)", int(v.EyeHeight), int(v.EyeLimit)),
		image.Pt(20, 60), gocv.FontHersheySimplex, 0.5, colorWhite, 1)

	gocv.PutText(frame, StatusLabel(v),
		image.Pt(20, 90), gocv.FontHersheySimplex, 0.7, lineColor, 2)

	if v.Bad {
		gocv.Rectangle(frame, image.Rect(0, 0, w, h), colorBad, 8)
		gocv.PutText(frame, "FIX POSTURE!",
			image.Pt(w/2-140, h/2), gocv.FontHersheySimplex, 1.1, colorBad, 3)
	}
}

// DrawCalibrationPrompt tells the user to sit straight before any
// classification can happen.
func DrawCalibrationPrompt(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	gocv.PutText(frame, "Sit straight & Calibrate",
		image.Pt(30, 60), gocv.FontHersheySimplex, 0.8, colorGood, 2)
}
