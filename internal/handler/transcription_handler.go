package handler

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/service"
)

// TranscriptionHandler handles live transcription sessions and the one-shot
// transcript upload.
type TranscriptionHandler struct {
	live        *service.LiveRegistry
	transcripts *service.TranscriptService
}

// NewTranscriptionHandler creates the transcription handler.
func NewTranscriptionHandler(live *service.LiveRegistry, transcripts *service.TranscriptService) *TranscriptionHandler {
	return &TranscriptionHandler{live: live, transcripts: transcripts}
}

// StartLive godoc
// POST /meetings/:id/live/start
func (h *TranscriptionHandler) StartLive(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	transcriptID, err := h.live.Start(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"meeting_id":    id,
		"transcript_id": transcriptID,
		"active":        true,
	})
}

// IngestChunk godoc
// POST /meetings/:id/live/chunks
// Body: {"audio": "<base64>", "mime_type": "audio/webm"}. An empty audio field
// is a no-op success — silent chunks are part of normal streams.
func (h *TranscriptionHandler) IngestChunk(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.ChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio must be base64"})
		return
	}
	resp, err := h.live.Ingest(c.Request.Context(), id, audio, req.MimeType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StopLive godoc
// POST /meetings/:id/live/stop
func (h *TranscriptionHandler) StopLive(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	transcriptID, length, err := h.live.Stop(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meeting_id":    id,
		"transcript_id": transcriptID,
		"length":        length,
	})
}

// LiveStatus godoc
// GET /meetings/:id/live — always succeeds; absent session reports inactive.
func (h *TranscriptionHandler) LiveStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.live.Status(id))
}

// UploadTranscript godoc
// POST /meetings/:id/transcript — multipart audio file, one-shot transcription.
func (h *TranscriptionHandler) UploadTranscript(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read audio file"})
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read audio file"})
		return
	}
	t, err := h.transcripts.Upload(c.Request.Context(), id, audio, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transcriptToResponse(t))
}

// GetTranscript godoc
// GET /meetings/:id/transcript
func (h *TranscriptionHandler) GetTranscript(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.transcripts.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcriptToResponse(t))
}

func transcriptToResponse(t *model.Transcript) model.TranscriptResponse {
	resp := model.TranscriptResponse{
		ID:               t.ID,
		MeetingID:        t.MeetingID,
		RawText:          t.RawText,
		SummaryText:      t.SummaryText,
		Minutes:          t.Minutes,
		ProcessingStatus: t.ProcessingStatus,
		UpdatedAt:        t.UpdatedAt,
	}
	if t.StructuredSummary != "" {
		var sum model.StructuredSummary
		if err := json.Unmarshal([]byte(t.StructuredSummary), &sum); err == nil {
			resp.StructuredSummary = &sum
		}
	}
	return resp
}
