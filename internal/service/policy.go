package service

import (
	"strings"
	"time"

	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
)

// assigneeHintTBD is the summarizer's marker for "no assignee named".
const assigneeHintTBD = "TBD"

// ResolveAssignee maps a free-text assignee hint to a user id.
// Case-insensitive substring match, first match wins; no disambiguation on
// multiple matches. Falls back to the organizer on no hint, "TBD", or no match.
func ResolveAssignee(store storage.Store, hint string, organizerID uint) uint {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.EqualFold(hint, assigneeHintTBD) {
		return organizerID
	}
	u, err := store.FindUserByName(hint)
	if err != nil {
		return organizerID
	}
	return u.ID
}

var deadlineLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04",
	"02.01.2006",
	"01/02/2006",
}

// ResolveDeadline parses a deadline hint; absent or unparseable hints default
// to defaultDays from now.
func ResolveDeadline(hint string, now time.Time, defaultDays int) time.Time {
	hint = strings.TrimSpace(hint)
	if hint != "" {
		for _, layout := range deadlineLayouts {
			if t, err := time.Parse(layout, hint); err == nil {
				return t
			}
		}
	}
	return now.AddDate(0, 0, defaultDays)
}

var (
	highPriorityKeywords = []string{"urgent", "asap", "critical"}
	lowPriorityKeywords  = []string{"low priority", "whenever"}
)

// InferPriority scans title+description for priority keywords.
func InferPriority(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range highPriorityKeywords {
		if strings.Contains(lower, kw) {
			return model.PriorityHigh
		}
	}
	for _, kw := range lowPriorityKeywords {
		if strings.Contains(lower, kw) {
			return model.PriorityLow
		}
	}
	return model.PriorityMedium
}
