package detector

import (
	"fmt"
	"image"
)

// Detection is a final detection in original-image pixel coordinates.
type Detection struct {
	Box        image.Rectangle `json:"box"`
	Confidence float32         `json:"confidence"`
	ClassID    int             `json:"class_id"`
	Label      string          `json:"label"`
}

// TopLeft returns the top-left corner of the box.
func (d Detection) TopLeft() image.Point { return d.Box.Min }

// BottomRight returns the bottom-right corner of the box.
func (d Detection) BottomRight() image.Point { return d.Box.Max }

// String formats the detection as "label conf x y w h".
func (d Detection) String() string {
	return fmt.Sprintf("%s %.2f %d %d %d %d",
		d.Label, d.Confidence, d.Box.Min.X, d.Box.Min.Y, d.Box.Dx(), d.Box.Dy())
}

// Best returns the highest-confidence detection; the first one wins on ties.
func Best(detections []Detection) (Detection, bool) {
	if len(detections) == 0 {
		return Detection{}, false
	}
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}
