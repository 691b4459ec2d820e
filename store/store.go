// Package store defines the persistence boundary for transcripts and their
// derived artifacts. Implementations: an in-memory store for tests and
// development, and a SQLite store in store/sqlite.
package store

import (
	"context"
	"errors"

	"github.com/skillsenselab/meetscribe/transcript"
)

// Sentinel errors returned by implementations.
var (
	// ErrNotFound indicates the transcript does not exist.
	ErrNotFound = errors.New("transcript not found")
	// ErrVersionConflict indicates a conditional update lost the race: the
	// stored version no longer matches the expected one.
	ErrVersionConflict = errors.New("transcript version conflict")
)

// Patch is the atomic update applied when a correction commits. Text, the
// speaker-labeled view, and the segments are written as one update;
// translations and generated analysis references are reset unconditionally
// because both derive from the pre-correction text.
type Patch struct {
	Text             string
	TextWithSpeakers string
	SpeakerSegments  []transcript.SpeakerSegment
	Translations     map[string]string
	AnalysisIDs      []string
	// ExpectedVersion guards against concurrent writers. The update fails
	// with ErrVersionConflict when the stored version differs.
	ExpectedVersion int64
}

// Analysis is a user-generated artifact derived from transcript text.
// Analyses become stale when the text changes and are deleted on commit.
type Analysis struct {
	ID           string `json:"id"`
	TranscriptID string `json:"transcriptId"`
	UserID       string `json:"userId"`
	Kind         string `json:"kind"`
	Content      string `json:"content"`
}

// Store is the persistence interface consumed by the correction and
// ingestion services.
type Store interface {
	// GetTranscript fetches a transcript by id. Returns ErrNotFound when it
	// does not exist.
	GetTranscript(ctx context.Context, id string) (*transcript.Transcript, error)

	// SaveTranscript inserts or fully replaces a transcript record.
	SaveTranscript(ctx context.Context, t *transcript.Transcript) error

	// UpdateTranscript applies a correction patch conditionally on the
	// expected version and returns the updated record.
	UpdateTranscript(ctx context.Context, id string, patch Patch) (*transcript.Transcript, error)

	// RenameSpeaker sets the custom display name for a speaker. The only
	// permitted mutation of a Speaker record after normalization.
	RenameSpeaker(ctx context.Context, id string, speakerID int, name string) (*transcript.Transcript, error)

	// AddAnalysis stores a user-generated analysis tied to a transcript.
	AddAnalysis(ctx context.Context, a Analysis) error

	// DeleteAnalyses removes all analyses for the transcript owned by the
	// user and returns the deleted ids.
	DeleteAnalyses(ctx context.Context, transcriptID, userID string) ([]string, error)
}
