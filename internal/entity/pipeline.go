package entity

type PipelineState string

const (
	StateIdle                PipelineState = "IDLE"
	StateDetecting           PipelineState = "DETECTING"
	StateDetected            PipelineState = "DETECTED"
	StateNotDetected         PipelineState = "NOT_DETECTED"
	StateAnnotating          PipelineState = "ANNOTATING"
	StateExtractingTimestamp PipelineState = "EXTRACTING_TIMESTAMP"
	StatePersisting          PipelineState = "PERSISTING"
	StateNotifying           PipelineState = "NOTIFYING"
)

// ProcessResult summarises one pipeline run over a single image file.
type ProcessResult struct {
	RunID      string          `json:"run_id"`
	ImagePath  string          `json:"image_path"`
	Detection  DetectionResult `json:"detection"`
	Timestamp  TimestampResult `json:"timestamp"`
	OutputPath string          `json:"output_path,omitempty"`
	MessageID  string          `json:"message_id,omitempty"`
	// LastState is the last state entered before the run returned to idle.
	LastState PipelineState `json:"last_state"`
}

// Alert is the event fanned out to subscribers after a notification was sent.
type Alert struct {
	RunID      string        `json:"run_id"`
	ImagePath  string        `json:"image_path"`
	OutputPath string        `json:"output_path"`
	Date       string        `json:"date"`
	Time       string        `json:"time"`
	MessageID  string        `json:"message_id"`
	Boxes      []BoundingBox `json:"boxes"`
}
