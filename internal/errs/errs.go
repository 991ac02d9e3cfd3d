package errs

import "errors"

// Доменные сентинель-ошибки для маппинга в HTTP коды в handlers.
var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrInvalidTransition  = errors.New("invalid meeting status transition")
	ErrSessionNotFound    = errors.New("no active transcription session")
	ErrSessionActive      = errors.New("transcription session already active")
	ErrCapability         = errors.New("capability failure")
)
