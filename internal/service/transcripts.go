package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/psds-microservice/meeting-service/internal/capability"
	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
	"go.uber.org/zap"
)

// TranscriptService covers the one-shot upload path and transcript reads.
type TranscriptService struct {
	store       storage.Store
	transcriber capability.Transcriber
	log         *zap.Logger
}

// NewTranscriptService creates the transcript service.
func NewTranscriptService(store storage.Store, transcriber capability.Transcriber, log *zap.Logger) *TranscriptService {
	return &TranscriptService{store: store, transcriber: transcriber, log: log}
}

// Upload transcribes a whole audio file in one pass. Unlike chunk ingestion,
// a capability failure here is fatal and marks the transcript failed.
func (s *TranscriptService) Upload(ctx context.Context, meetingID uint, audio []byte, mimeType string) (*model.Transcript, error) {
	if _, err := s.store.GetMeeting(meetingID); err != nil {
		return nil, err
	}

	t, err := s.store.GetTranscriptByMeeting(meetingID)
	if errors.Is(err, errs.ErrTranscriptNotFound) {
		t = &model.Transcript{MeetingID: meetingID, ProcessingStatus: string(model.ProcessingProcessing)}
		if cerr := s.store.CreateTranscript(t); cerr != nil {
			return nil, cerr
		}
	} else if err != nil {
		return nil, err
	} else if serr := s.store.SetTranscriptStatus(t.ID, model.ProcessingProcessing); serr != nil {
		s.log.Warn("mark transcript processing failed", zap.Uint("transcript_id", t.ID), zap.Error(serr))
	}

	text, err := s.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		if serr := s.store.SetTranscriptStatus(t.ID, model.ProcessingFailed); serr != nil {
			s.log.Warn("mark transcript failed failed", zap.Uint("transcript_id", t.ID), zap.Error(serr))
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrCapability, err)
	}

	t.RawText = strings.TrimSpace(text)
	t.ProcessingStatus = string(model.ProcessingCompleted)
	if err := s.store.SaveTranscript(t); err != nil {
		return nil, err
	}
	s.log.Info("transcript uploaded",
		zap.Uint("meeting_id", meetingID),
		zap.Uint("transcript_id", t.ID),
		zap.Int("length", len(t.RawText)))
	return t, nil
}

// Get returns the transcript for a meeting.
func (s *TranscriptService) Get(meetingID uint) (*model.Transcript, error) {
	if _, err := s.store.GetMeeting(meetingID); err != nil {
		return nil, err
	}
	return s.store.GetTranscriptByMeeting(meetingID)
}
