package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/service"
)

// MeetingHandler handles REST API for meetings and their lifecycle.
type MeetingHandler struct {
	meetings *service.MeetingService
	pipeline service.PipelineRunner
}

// NewMeetingHandler creates a meeting handler.
func NewMeetingHandler(meetings *service.MeetingService, pipeline service.PipelineRunner) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, pipeline: pipeline}
}

// CreateMeeting godoc
// POST /meetings
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	var req model.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	m, err := h.meetings.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.MeetingToResponse(m))
}

// ListMeetings godoc
// GET /meetings?status=
func (h *MeetingHandler) ListMeetings(c *gin.Context) {
	meetings, err := h.meetings.List(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]model.MeetingResponse, 0, len(meetings))
	for i := range meetings {
		out = append(out, model.MeetingToResponse(&meetings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"meetings": out})
}

// GetMeeting godoc
// GET /meetings/:id
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.meetings.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MeetingToResponse(m))
}

// UpdateMeeting godoc
// PATCH /meetings/:id
func (h *MeetingHandler) UpdateMeeting(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	m, err := h.meetings.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MeetingToResponse(m))
}

// StartMeeting godoc
// POST /meetings/:id/start
func (h *MeetingHandler) StartMeeting(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.meetings.Start(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MeetingToResponse(m))
}

// StopMeeting godoc
// POST /meetings/:id/stop
func (h *MeetingHandler) StopMeeting(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.meetings.Stop(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MeetingToResponse(m))
}

// CheckIn godoc
// POST /meetings/:id/attendance
func (h *MeetingHandler) CheckIn(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	a, err := h.meetings.CheckIn(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"meeting_id":    a.MeetingID,
		"user_id":       a.UserID,
		"method":        a.Method,
		"checked_in_at": a.CheckedInAt,
	})
}

// ListAttendance godoc
// GET /meetings/:id/attendance
func (h *MeetingHandler) ListAttendance(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.meetings.Attendance(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting_id": id, "attendance": list})
}

// GenerateSummary godoc
// POST /meetings/:id/summary — run the auto-summary pipeline directly.
// Regenerates on repeat invocation; duplicate tickets are the caller's risk.
func (h *MeetingHandler) GenerateSummary(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := h.pipeline.Run(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
