package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/service"
	"github.com/psds-microservice/meeting-service/internal/storage"
)

// TaskHandler handles REST API for tasks.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTask godoc
// POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req model.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	t, err := h.tasks.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.TaskToResponse(t))
}

// GetTask godoc
// GET /tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.tasks.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaskToResponse(t))
}

// ListTasks godoc
// GET /tasks?meeting_id=&assignee_id=&status=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var f storage.TaskFilter
	if raw := c.Query("meeting_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "meeting_id must be an integer"})
			return
		}
		v := uint(id)
		f.MeetingID = &v
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "assignee_id must be an integer"})
			return
		}
		v := uint(id)
		f.AssigneeID = &v
	}
	f.Status = c.Query("status")
	tasks, err := h.tasks.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]model.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, model.TaskToResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

// UpdateTask godoc
// PATCH /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	t, err := h.tasks.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaskToResponse(t))
}
