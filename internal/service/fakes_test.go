package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
)

// memStore is an in-memory storage.Store for tests.
type memStore struct {
	mu          sync.Mutex
	meetings    map[uint]model.Meeting
	transcripts map[uint]model.Transcript
	tasks       map[uint]model.Task
	users       map[uint]model.User
	attendance  map[uint]model.Attendance
	nextID      uint

	// failure hooks
	failStatusFor  map[uint]error   // UpdateMeetingStatus failures per meeting
	failTaskTitles map[string]error // CreateTask failures per title
	failTextUpdate error            // UpdateTranscriptText failure

	// timing hooks, invoked outside the store lock so tests can stall a call
	textUpdateHook       func(raw string)     // before UpdateTranscriptText applies
	transcriptLookupHook func(meetingID uint) // before GetTranscriptByMeeting reads
}

func newMemStore() *memStore {
	return &memStore{
		meetings:       make(map[uint]model.Meeting),
		transcripts:    make(map[uint]model.Transcript),
		tasks:          make(map[uint]model.Task),
		users:          make(map[uint]model.User),
		attendance:     make(map[uint]model.Attendance),
		failStatusFor:  make(map[uint]error),
		failTaskTitles: make(map[string]error),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(name string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: s.id(), Name: name, Email: strings.ToLower(name) + "@example.com", Role: "official"}
	s.users[u.ID] = u
	return &u
}

func (s *memStore) addMeeting(status model.MeetingStatus, datetime time.Time, organizerID uint) *model.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := model.Meeting{
		ID:          s.id(),
		Title:       "sprint review",
		Datetime:    datetime,
		Status:      string(status),
		OrganizerID: organizerID,
	}
	s.meetings[m.ID] = m
	return &m
}

func (s *memStore) addTranscript(meetingID uint, raw string) *model.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Transcript{ID: s.id(), MeetingID: meetingID, RawText: raw, ProcessingStatus: string(model.ProcessingPending)}
	s.transcripts[t.ID] = t
	return &t
}

func (s *memStore) CreateMeeting(m *model.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	m.CreatedAt = time.Now()
	s.meetings[m.ID] = *m
	return nil
}

func (s *memStore) GetMeeting(id uint) (*model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return nil, errs.ErrMeetingNotFound
	}
	cp := m
	for _, t := range s.transcripts {
		if t.MeetingID == id {
			tc := t
			cp.Transcript = &tc
			break
		}
	}
	return &cp, nil
}

func (s *memStore) ListMeetings(status string) ([]model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Meeting
	for _, m := range s.meetings {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) SaveMeeting(m *model.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[m.ID]; !ok {
		return errs.ErrMeetingNotFound
	}
	cp := *m
	cp.Transcript = nil
	s.meetings[m.ID] = cp
	return nil
}

func (s *memStore) UpdateMeetingStatus(id uint, from, to model.MeetingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failStatusFor[id]; ok {
		return err
	}
	m, ok := s.meetings[id]
	if !ok {
		return errs.ErrMeetingNotFound
	}
	if m.Status != string(from) {
		return errs.ErrInvalidTransition
	}
	m.Status = string(to)
	s.meetings[id] = m
	return nil
}

func (s *memStore) DueScheduled(now time.Time) ([]model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Meeting
	for _, m := range s.meetings {
		if m.Status == string(model.MeetingScheduled) && !m.Datetime.After(now) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateTranscript(t *model.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.transcripts {
		if existing.MeetingID == t.MeetingID {
			return errs.ErrSessionActive // unique violation stand-in; not hit in tests
		}
	}
	t.ID = s.id()
	s.transcripts[t.ID] = *t
	return nil
}

func (s *memStore) GetTranscript(id uint) (*model.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[id]
	if !ok {
		return nil, errs.ErrTranscriptNotFound
	}
	cp := t
	return &cp, nil
}

func (s *memStore) GetTranscriptByMeeting(meetingID uint) (*model.Transcript, error) {
	s.mu.Lock()
	hook := s.transcriptLookupHook
	s.mu.Unlock()
	if hook != nil {
		hook(meetingID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transcripts {
		if t.MeetingID == meetingID {
			cp := t
			return &cp, nil
		}
	}
	return nil, errs.ErrTranscriptNotFound
}

func (s *memStore) SaveTranscript(t *model.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transcripts[t.ID]; !ok {
		return errs.ErrTranscriptNotFound
	}
	s.transcripts[t.ID] = *t
	return nil
}

func (s *memStore) UpdateTranscriptText(id uint, raw string) error {
	s.mu.Lock()
	hook := s.textUpdateHook
	s.mu.Unlock()
	if hook != nil {
		hook(raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTextUpdate != nil {
		return s.failTextUpdate
	}
	t, ok := s.transcripts[id]
	if !ok {
		return errs.ErrTranscriptNotFound
	}
	t.RawText = raw
	s.transcripts[id] = t
	return nil
}

func (s *memStore) SetTranscriptStatus(id uint, status model.ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[id]
	if !ok {
		return errs.ErrTranscriptNotFound
	}
	t.ProcessingStatus = string(status)
	s.transcripts[id] = t
	return nil
}

func (s *memStore) CreateTask(t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failTaskTitles[t.Title]; ok {
		return err
	}
	t.ID = s.id()
	s.tasks[t.ID] = *t
	return nil
}

func (s *memStore) GetTask(id uint) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, errs.ErrTaskNotFound
	}
	cp := t
	return &cp, nil
}

func (s *memStore) ListTasks(f storage.TaskFilter) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, t := range s.tasks {
		if f.MeetingID != nil && (t.MeetingID == nil || *t.MeetingID != *f.MeetingID) {
			continue
		}
		if f.AssigneeID != nil && t.AssigneeID != *f.AssigneeID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) SaveTask(t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return errs.ErrTaskNotFound
	}
	s.tasks[t.ID] = *t
	return nil
}

func (s *memStore) GetUser(id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	cp := u
	return &cp, nil
}

func (s *memStore) FindUserByName(hint string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	needle := strings.ToLower(hint)
	for _, id := range ids {
		if strings.Contains(strings.ToLower(s.users[id].Name), needle) {
			cp := s.users[id]
			return &cp, nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (s *memStore) CreateAttendance(a *model.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.attendance[a.ID] = *a
	return nil
}

func (s *memStore) ListAttendance(meetingID uint) ([]model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Attendance
	for _, a := range s.attendance {
		if a.MeetingID == meetingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeTranscriber echoes the audio bytes as text unless fn is set.
type fakeTranscriber struct {
	fn func(audio []byte, mimeType string) (string, error)
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, mimeType string) (string, error) {
	if f.fn != nil {
		return f.fn(audio, mimeType)
	}
	return string(audio), nil
}

// fakeSummarizer returns a fixed summary unless fn is set.
type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	summary *model.StructuredSummary
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript string) (*model.StructuredSummary, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.summary != nil {
		return f.summary, nil
	}
	return &model.StructuredSummary{Abstract: "summary of: " + transcript}, nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordHub records published events.
type recordHub struct {
	mu     sync.Mutex
	events []Event
}

func (h *recordHub) Publish(meetingID uint, kind EventKind, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, Event{Event: kind, MeetingID: meetingID, Payload: payload, Timestamp: time.Now()})
}

func (h *recordHub) byKind(kind EventKind) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, e := range h.events {
		if e.Event == kind {
			out = append(out, e)
		}
	}
	return out
}

// fakePipeline records completion triggers.
type fakePipeline struct {
	mu   sync.Mutex
	runs []uint
	done chan struct{}
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{done: make(chan struct{}, 8)}
}

func (p *fakePipeline) Run(_ context.Context, meetingID uint) (*model.PipelineResult, error) {
	p.mu.Lock()
	p.runs = append(p.runs, meetingID)
	p.mu.Unlock()
	p.done <- struct{}{}
	return &model.PipelineResult{SummaryGenerated: true}, nil
}

func (p *fakePipeline) ranFor() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint(nil), p.runs...)
}
