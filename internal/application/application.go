package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/psds-microservice/meeting-service/internal/capability"
	"github.com/psds-microservice/meeting-service/internal/config"
	"github.com/psds-microservice/meeting-service/internal/database"
	"github.com/psds-microservice/meeting-service/internal/handler"
	"github.com/psds-microservice/meeting-service/internal/router"
	"github.com/psds-microservice/meeting-service/internal/service"
	"github.com/psds-microservice/meeting-service/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg     *config.Config
	srv     *http.Server
	db      *gorm.DB
	hub     *service.Hub
	sweeper *service.Sweeper
}

// NewAPI creates the API application: validates config, runs migrations, opens DB, builds router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	store := storage.NewGormStore(db)
	hub := service.NewHub(cfg.WSMaxMessageSize, logger)

	ai := capability.NewOpenAIClient(capability.OpenAIConfig{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		TranscribeModel: cfg.TranscribeModel,
		SummaryModel:    cfg.SummaryModel,
	})

	pipeline := service.NewPipeline(store, ai, cfg.TaskDefaultDeadlineDays, logger)
	meetingSvc := service.NewMeetingService(store, hub, pipeline, logger)
	liveReg := service.NewLiveRegistry(store, ai, ai, meetingSvc, hub, service.LiveRegistryConfig{
		SummaryInterval:  cfg.SummaryInterval,
		SummaryThreshold: cfg.SummaryBufferThreshold,
	}, logger)
	transcriptSvc := service.NewTranscriptService(store, ai, logger)
	taskSvc := service.NewTaskService(store, logger)
	sweeper := service.NewSweeper(meetingSvc, cfg.SweepInterval, logger)

	meetingHandler := handler.NewMeetingHandler(meetingSvc, pipeline)
	transcriptionHandler := handler.NewTranscriptionHandler(liveReg, transcriptSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	eventsWS := handler.NewEventsWSHandler(hub, meetingSvc, logger)
	health := handler.NewHealthHandler()

	r := router.New(meetingHandler, transcriptionHandler, taskHandler, eventsWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, hub: hub, sweeper: sweeper}, nil
}

// Run starts the HTTP server and the status sweep, and blocks until ctx is
// cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Meetings:      %s/meetings", base)
	log.Printf("  Tasks:         %s/tasks", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws/meetings/:meeting_id/:user_id", host, a.cfg.HTTPPort)

	go a.sweeper.Run(ctx)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
