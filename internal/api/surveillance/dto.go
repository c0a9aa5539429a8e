package surveillance

import "time"

type Stats struct {
	Processed      uint64    `json:"processed"`
	PersonDetected uint64    `json:"person_detected"`
	Notified       uint64    `json:"notified"`
	Failed         uint64    `json:"failed"`
	LastImage      string    `json:"last_image,omitempty"`
	LastAlertAt    time.Time `json:"last_alert_at,omitempty"`
}

type StatusResponse struct {
	WatchDir  string `json:"watch_dir"`
	OutputDir string `json:"output_dir"`
	Detector  string `json:"detector"`
	OCR       string `json:"ocr"`
	Notifier  string `json:"notifier"`
	Stats     Stats  `json:"stats"`
}
