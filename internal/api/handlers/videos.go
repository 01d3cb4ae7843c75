package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facecat/internal/engine"
	"github.com/your-org/facecat/internal/models"
	"github.com/your-org/facecat/pkg/dto"
)

// VideoHandler accepts videos for processing. Runs are serialized: the
// engine and catalog have a single writer at a time.
type VideoHandler struct {
	eng        *engine.Engine
	runner     *engine.Runner
	uploadsDir string
	outputDir  string
	mu         sync.Mutex
}

func NewVideoHandler(eng *engine.Engine, runner *engine.Runner, uploadsDir, outputDir string) *VideoHandler {
	return &VideoHandler{
		eng:        eng,
		runner:     runner,
		uploadsDir: uploadsDir,
		outputDir:  outputDir,
	}
}

// ProcessUpload handles a multipart video upload, processes it and
// returns the catalog additions. The upload is removed afterwards.
func (h *VideoHandler) ProcessUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing video file"})
		return
	}

	uploadPath := filepath.Join(h.uploadsDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, uploadPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("save upload: %v", err)})
		return
	}
	defer os.Remove(uploadPath)

	resp, status := h.run(c.Request.Context(), uploadPath)
	c.JSON(status, resp)
}

// ProcessPath processes a video that is already on the server.
func (h *VideoHandler) ProcessPath(c *gin.Context) {
	var req dto.ProcessPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := os.Stat(req.VideoPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("video not found: %s", req.VideoPath)})
		return
	}

	resp, status := h.run(c.Request.Context(), req.VideoPath)
	c.JSON(status, resp)
}

// DownloadOutput serves a previously produced annotated video.
func (h *VideoHandler) DownloadOutput(c *gin.Context) {
	name := c.Param("name")
	if name == "" || filepath.Base(name) != name {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid output name"})
		return
	}

	path := filepath.Join(h.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "output not found"})
		return
	}

	c.FileAttachment(path, name)
}

func (h *VideoHandler) run(ctx context.Context, inputPath string) (dto.ProcessResponse, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Each video is an independent stream: fresh transient track state,
	// same durable catalog.
	h.eng.Reset()

	outputName := fmt.Sprintf("annotated_%s.mp4", uuid.NewString()[:8])
	outputPath := filepath.Join(h.outputDir, outputName)

	summary, err := h.runner.ProcessVideo(ctx, inputPath, outputPath)
	if err != nil {
		return dto.ProcessResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusInternalServerError
	}

	return dto.ProcessResponse{
		Status:          "success",
		Message:         fmt.Sprintf("processed %d frames", summary.FramesProcessed),
		OutputVideo:     outputName,
		FramesProcessed: summary.FramesProcessed,
		DetectionsCount: len(summary.Records),
		Detections:      toDetections(summary.Records),
	}, http.StatusOK
}

func toDetections(records []models.PersonRecord) []dto.DetectionResponse {
	out := make([]dto.DetectionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.DetectionResponse{
			ID:        r.ID,
			Image:     r.ImageRef,
			Gender:    r.Gender,
			Age:       r.Age,
			EntryTime: r.FirstSeen.Format(time.RFC3339),
		})
	}
	return out
}
