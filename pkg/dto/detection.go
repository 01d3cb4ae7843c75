package dto

// DetectionResponse is one catalogued person as returned by the API.
type DetectionResponse struct {
	ID        int    `json:"id"`
	Image     string `json:"image"`
	Gender    string `json:"gender"`
	Age       string `json:"age"`
	EntryTime string `json:"entry_time"`
}

// ProcessPathRequest asks the service to process a video already on disk.
type ProcessPathRequest struct {
	VideoPath string `json:"video_path" binding:"required"`
}

// ProcessResponse reports the outcome of a processing run.
type ProcessResponse struct {
	Status          string              `json:"status"`
	Message         string              `json:"message"`
	OutputVideo     string              `json:"output_video,omitempty"`
	FramesProcessed int                 `json:"frames_processed"`
	DetectionsCount int                 `json:"detections_count"`
	Detections      []DetectionResponse `json:"detections"`
}
