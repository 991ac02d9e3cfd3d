// Package capability wraps the external speech-to-text and text-generation
// engine behind two narrow interfaces so the core never sees vendor types.
package capability

import (
	"context"

	"github.com/psds-microservice/meeting-service/internal/model"
)

// Transcriber converts an audio buffer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Summarizer converts accumulated transcript text into a structured summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (*model.StructuredSummary, error)
}
