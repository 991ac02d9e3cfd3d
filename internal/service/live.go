package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/psds-microservice/meeting-service/internal/capability"
	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
	"go.uber.org/zap"
)

// liveSession is the in-memory accumulation state for one meeting. The mutex
// serializes ingest and stop so buffer order equals call-arrival order even
// when transcription latency varies between chunks.
type liveSession struct {
	mu            sync.Mutex
	meetingID     uint
	transcriptID  uint
	buf           string
	seq           uint64 // increments per buffer change, guarded by mu
	startedAt     time.Time
	updatedAt     time.Time
	lastSummaryAt time.Time
	closed        bool

	// flushMu serializes persisted writes of the buffer; flushedSeq (guarded
	// by flushMu) is the sequence of the last write that landed, so a slow
	// flush can never overwrite a newer snapshot or the final persist.
	flushMu    sync.Mutex
	flushedSeq uint64
}

// LiveRegistry is the injectable table of active transcription sessions,
// keyed by meeting id with at most one session per meeting. The Transcript
// row stays the system of record; the registry only holds the provisional
// unflushed tail, which is the accepted loss on restart.
type LiveRegistry struct {
	mu       sync.Mutex
	sessions map[uint]*liveSession

	store       storage.Store
	transcriber capability.Transcriber
	summarizer  capability.Summarizer
	meetings    *MeetingService
	hub         Broadcaster
	log         *zap.Logger
	now         func() time.Time

	summaryInterval  time.Duration
	summaryThreshold int
}

// LiveRegistryConfig tunes the interim summarization policy.
type LiveRegistryConfig struct {
	SummaryInterval  time.Duration
	SummaryThreshold int
}

// NewLiveRegistry creates the session registry.
func NewLiveRegistry(
	store storage.Store,
	transcriber capability.Transcriber,
	summarizer capability.Summarizer,
	meetings *MeetingService,
	hub Broadcaster,
	cfg LiveRegistryConfig,
	log *zap.Logger,
) *LiveRegistry {
	if cfg.SummaryInterval <= 0 {
		cfg.SummaryInterval = 30 * time.Second
	}
	if cfg.SummaryThreshold <= 0 {
		cfg.SummaryThreshold = 1000
	}
	return &LiveRegistry{
		sessions:         make(map[uint]*liveSession),
		store:            store,
		transcriber:      transcriber,
		summarizer:       summarizer,
		meetings:         meetings,
		hub:              hub,
		log:              log,
		now:              time.Now,
		summaryInterval:  cfg.SummaryInterval,
		summaryThreshold: cfg.SummaryThreshold,
	}
}

// Start opens a live transcription session for the meeting, reusing the
// Transcript row when one exists (e.g. resuming after a disconnect).
// A scheduled meeting is auto-started first, best-effort: when the explicit
// transition fails, the authoritative status is re-read and the session
// proceeds only if the meeting is actually in progress.
func (r *LiveRegistry) Start(ctx context.Context, meetingID uint) (uint, error) {
	m, err := r.store.GetMeeting(meetingID)
	if err != nil {
		return 0, err
	}
	status := model.MeetingStatus(m.Status)
	if status.Terminal() {
		return 0, errs.ErrInvalidTransition
	}
	if status == model.MeetingScheduled {
		if _, err := r.meetings.Start(ctx, meetingID); err != nil {
			r.log.Warn("auto-start on record failed", zap.Uint("meeting_id", meetingID), zap.Error(err))
			fresh, gerr := r.store.GetMeeting(meetingID)
			if gerr != nil {
				return 0, gerr
			}
			if fresh.Status != string(model.MeetingInProgress) {
				return 0, errs.ErrInvalidTransition
			}
		}
	}

	// Reserve the session slot before any storage IO so two concurrent
	// starts cannot both pass the at-most-one check. The session lock is
	// taken before the slot is published, so an ingest that finds the
	// session in the map blocks until the buffer has been seeded.
	sess := &liveSession{meetingID: meetingID, startedAt: r.now(), lastSummaryAt: r.now()}
	r.mu.Lock()
	if _, ok := r.sessions[meetingID]; ok {
		r.mu.Unlock()
		return 0, errs.ErrSessionActive
	}
	r.sessions[meetingID] = sess
	sess.mu.Lock()
	r.mu.Unlock()

	t, err := r.store.GetTranscriptByMeeting(meetingID)
	if errors.Is(err, errs.ErrTranscriptNotFound) {
		t = &model.Transcript{MeetingID: meetingID, ProcessingStatus: string(model.ProcessingProcessing)}
		err = r.store.CreateTranscript(t)
	} else if err == nil {
		if serr := r.store.SetTranscriptStatus(t.ID, model.ProcessingProcessing); serr != nil {
			r.log.Warn("mark transcript processing failed", zap.Uint("transcript_id", t.ID), zap.Error(serr))
		}
	}
	if err != nil {
		sess.closed = true
		sess.mu.Unlock()
		r.remove(meetingID)
		return 0, err
	}

	sess.transcriptID = t.ID
	sess.buf = t.RawText
	sess.mu.Unlock()

	r.log.Info("live session started",
		zap.Uint("meeting_id", meetingID),
		zap.Uint("transcript_id", t.ID))
	return t.ID, nil
}

// Ingest transcribes one audio chunk and appends the result to the session
// buffer. Empty input and transcription failures are tolerated: silent chunks
// are expected in real audio streams, and one lost chunk of text is better
// than a failed stream. The persist of the grown buffer is fire-and-forget;
// the in-memory buffer stays authoritative until the next successful write.
func (r *LiveRegistry) Ingest(ctx context.Context, meetingID uint, audio []byte, mimeType string) (*model.ChunkResponse, error) {
	r.mu.Lock()
	sess, ok := r.sessions[meetingID]
	r.mu.Unlock()
	if !ok {
		return nil, errs.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil, errs.ErrSessionNotFound
	}

	if len(audio) == 0 {
		return &model.ChunkResponse{Length: len(sess.buf)}, nil
	}

	text, err := r.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		r.log.Warn("chunk transcription failed",
			zap.Uint("meeting_id", meetingID), zap.Error(err))
		return &model.ChunkResponse{Length: len(sess.buf)}, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return &model.ChunkResponse{Length: len(sess.buf)}, nil
	}

	if sess.buf != "" {
		sess.buf += " "
	}
	sess.buf += text
	sess.updatedAt = r.now()
	sess.seq++

	snapshot, tid, seq := sess.buf, sess.transcriptID, sess.seq
	go r.flush(sess, tid, seq, snapshot)

	resp := &model.ChunkResponse{Text: text, Length: len(sess.buf)}
	if r.now().Sub(sess.lastSummaryAt) > r.summaryInterval || len(sess.buf) > r.summaryThreshold {
		sum, serr := r.summarizer.Summarize(ctx, sess.buf)
		if serr != nil {
			r.log.Warn("interim summarization failed",
				zap.Uint("meeting_id", meetingID), zap.Error(serr))
		} else {
			sess.lastSummaryAt = r.now()
			resp.InterimSummary = sum.Abstract
		}
	}

	payload := map[string]interface{}{"text": text, "length": resp.Length}
	if resp.InterimSummary != "" {
		payload["interim_summary"] = resp.InterimSummary
	}
	r.hub.Publish(meetingID, EventLiveTranscript, payload)
	return resp, nil
}

// Stop persists the final accumulated buffer, marks the transcript completed,
// destroys the session, and drives the meeting to completed if it is still in
// progress (which in turn triggers the summary pipeline).
func (r *LiveRegistry) Stop(ctx context.Context, meetingID uint) (uint, int, error) {
	r.mu.Lock()
	sess, ok := r.sessions[meetingID]
	if ok {
		delete(r.sessions, meetingID)
	}
	r.mu.Unlock()
	if !ok {
		return 0, 0, errs.ErrSessionNotFound
	}

	// Taking the session lock waits out any in-flight ingest so its text is
	// part of the final buffer.
	sess.mu.Lock()
	sess.closed = true
	sess.seq++
	final, tid, finalSeq := sess.buf, sess.transcriptID, sess.seq
	sess.mu.Unlock()

	// The final persist goes through flushMu with the highest sequence, so
	// any incremental flush still in flight either lands before it or is
	// skipped by the sequence guard. The row can never end on a stale prefix.
	sess.flushMu.Lock()
	err := r.store.UpdateTranscriptText(tid, final)
	if err == nil {
		sess.flushedSeq = finalSeq
	}
	sess.flushMu.Unlock()
	if err != nil {
		return 0, 0, err
	}
	if err := r.store.SetTranscriptStatus(tid, model.ProcessingCompleted); err != nil {
		return 0, 0, err
	}

	m, err := r.store.GetMeeting(meetingID)
	if err != nil {
		r.log.Warn("stop: meeting re-read failed", zap.Uint("meeting_id", meetingID), zap.Error(err))
	} else if m.Status == string(model.MeetingInProgress) {
		if _, err := r.meetings.Stop(ctx, meetingID); err != nil {
			r.log.Warn("stop: meeting completion failed", zap.Uint("meeting_id", meetingID), zap.Error(err))
		}
	}

	r.log.Info("live session stopped",
		zap.Uint("meeting_id", meetingID),
		zap.Uint("transcript_id", tid),
		zap.Int("length", len(final)))
	return tid, len(final), nil
}

// Status reports session state; an absent session is not an error.
func (r *LiveRegistry) Status(meetingID uint) *model.LiveStatusResponse {
	r.mu.Lock()
	sess, ok := r.sessions[meetingID]
	r.mu.Unlock()
	if !ok {
		return &model.LiveStatusResponse{Active: false}
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	started := sess.startedAt
	resp := &model.LiveStatusResponse{
		Active:       true,
		TranscriptID: sess.transcriptID,
		Length:       len(sess.buf),
		StartedAt:    &started,
	}
	if !sess.updatedAt.IsZero() {
		updated := sess.updatedAt
		resp.LastUpdatedAt = &updated
	}
	return resp
}

// flush persists one buffer snapshot. Writes are serialized per session and
// a snapshot older than the last landed write is dropped.
func (r *LiveRegistry) flush(sess *liveSession, tid uint, seq uint64, snapshot string) {
	sess.flushMu.Lock()
	defer sess.flushMu.Unlock()
	if seq <= sess.flushedSeq {
		return
	}
	if err := r.store.UpdateTranscriptText(tid, snapshot); err != nil {
		r.log.Warn("incremental transcript flush failed",
			zap.Uint("transcript_id", tid), zap.Error(err))
		return
	}
	sess.flushedSeq = seq
}

func (r *LiveRegistry) remove(meetingID uint) {
	r.mu.Lock()
	delete(r.sessions, meetingID)
	r.mu.Unlock()
}
