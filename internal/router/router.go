package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/meeting-service/internal/handler"
	"github.com/psds-microservice/meeting-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	meetingHandler *handler.MeetingHandler,
	transcriptionHandler *handler.TranscriptionHandler,
	taskHandler *handler.TaskHandler,
	eventsWS *handler.EventsWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST meetings + lifecycle + transcription
	meetings := r.Group("/meetings")
	{
		meetings.POST("", meetingHandler.CreateMeeting)
		meetings.GET("", meetingHandler.ListMeetings)
		meetings.GET("/:id", meetingHandler.GetMeeting)
		meetings.PATCH("/:id", meetingHandler.UpdateMeeting)
		meetings.POST("/:id/start", meetingHandler.StartMeeting)
		meetings.POST("/:id/stop", meetingHandler.StopMeeting)
		meetings.POST("/:id/attendance", meetingHandler.CheckIn)
		meetings.GET("/:id/attendance", meetingHandler.ListAttendance)
		meetings.POST("/:id/summary", meetingHandler.GenerateSummary)

		meetings.POST("/:id/transcript", transcriptionHandler.UploadTranscript)
		meetings.GET("/:id/transcript", transcriptionHandler.GetTranscript)
		meetings.POST("/:id/live/start", transcriptionHandler.StartLive)
		meetings.POST("/:id/live/chunks", transcriptionHandler.IngestChunk)
		meetings.POST("/:id/live/stop", transcriptionHandler.StopLive)
		meetings.GET("/:id/live", transcriptionHandler.LiveStatus)
	}

	// REST tasks
	tasks := r.Group("/tasks")
	{
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("", taskHandler.ListTasks)
		tasks.GET("/:id", taskHandler.GetTask)
		tasks.PATCH("/:id", taskHandler.UpdateTask)
	}

	// WebSocket: /ws/meetings/:meeting_id/:user_id
	r.GET("/ws/meetings/:meeting_id/:user_id", eventsWS.ServeWS)

	return r
}
