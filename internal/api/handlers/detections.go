package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facecat/internal/engine"
	"github.com/your-org/facecat/internal/models"
)

// DetectionHandler exposes the person catalog.
type DetectionHandler struct {
	eng *engine.Engine
}

func NewDetectionHandler(eng *engine.Engine) *DetectionHandler {
	return &DetectionHandler{eng: eng}
}

func (h *DetectionHandler) List(c *gin.Context) {
	records := h.eng.Catalog().Records()
	c.JSON(http.StatusOK, gin.H{
		"detections": toDetections(records),
		"total":      len(records),
	})
}

func (h *DetectionHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detection id"})
		return
	}

	rec, ok := h.eng.Catalog().Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "detection not found"})
		return
	}

	resp := toDetections([]models.PersonRecord{rec})
	c.JSON(http.StatusOK, resp[0])
}

// Face serves the representative face image for a person.
func (h *DetectionHandler) Face(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detection id"})
		return
	}

	rec, ok := h.eng.Catalog().Get(id)
	if !ok || rec.ImageRef == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "face image not found"})
		return
	}

	data, err := h.eng.Catalog().FaceImage(c.Request.Context(), rec.ImageRef)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "face image not readable"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// Clear wipes the whole catalog: records, artifacts, persisted state.
func (h *DetectionHandler) Clear(c *gin.Context) {
	if err := h.eng.ClearCatalog(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
