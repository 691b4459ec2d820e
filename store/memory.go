package store

import (
	"context"
	"sync"
	"time"

	"github.com/skillsenselab/meetscribe/transcript"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string]*transcript.Transcript
	analyses    map[string][]Analysis // transcript id -> analyses
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transcripts: make(map[string]*transcript.Transcript),
		analyses:    make(map[string][]Analysis),
	}
}

// GetTranscript fetches a transcript by id.
func (s *MemoryStore) GetTranscript(ctx context.Context, id string) (*transcript.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transcripts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

// SaveTranscript inserts or replaces a transcript record.
func (s *MemoryStore) SaveTranscript(ctx context.Context, t *transcript.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := t.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()
	s.transcripts[t.ID] = stored
	return nil
}

// UpdateTranscript applies a correction patch conditionally on version.
func (s *MemoryStore) UpdateTranscript(ctx context.Context, id string, patch Patch) (*transcript.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if t.Version != patch.ExpectedVersion {
		return nil, ErrVersionConflict
	}

	t.Text = patch.Text
	t.TextWithSpeakers = patch.TextWithSpeakers
	t.SpeakerSegments = transcript.CloneSegments(patch.SpeakerSegments)
	t.Translations = copyMap(patch.Translations)
	t.GeneratedAnalysisIDs = append([]string(nil), patch.AnalysisIDs...)
	t.Version++
	t.UpdatedAt = time.Now().UTC()
	return t.Clone(), nil
}

// RenameSpeaker sets the custom display name for a speaker.
func (s *MemoryStore) RenameSpeaker(ctx context.Context, id string, speakerID int, name string) (*transcript.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[id]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range t.Speakers {
		if t.Speakers[i].SpeakerID == speakerID {
			t.Speakers[i].CustomName = name
			t.UpdatedAt = time.Now().UTC()
			return t.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// AddAnalysis stores an analysis tied to a transcript.
func (s *MemoryStore) AddAnalysis(ctx context.Context, a Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.TranscriptID] = append(s.analyses[a.TranscriptID], a)
	return nil
}

// DeleteAnalyses removes all analyses for the transcript owned by the user.
func (s *MemoryStore) DeleteAnalyses(ctx context.Context, transcriptID, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted []string
	var kept []Analysis
	for _, a := range s.analyses[transcriptID] {
		if a.UserID == userID {
			deleted = append(deleted, a.ID)
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		delete(s.analyses, transcriptID)
	} else {
		s.analyses[transcriptID] = kept
	}
	return deleted, nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
