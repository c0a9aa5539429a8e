package entity

import "image"

// PersonClassID is the COCO class index the detection model assigns to people.
const PersonClassID = 0

const PersonLabel = "Person"

// Prediction is a single raw box as returned by the detection model, before filtering.
type Prediction struct {
	ClassID    int     `json:"class_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

type BoundingBox struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
}

func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

type DetectionResult struct {
	Processed      bool          `json:"processed"`
	PersonDetected bool          `json:"person_detected"`
	Boxes          []BoundingBox `json:"boxes"`
}

// NotProcessed is returned when the image could not be read.
func NotProcessed() DetectionResult {
	return DetectionResult{}
}
