// Package sqlite implements the transcript store on SQLite via the
// pure-Go modernc driver. One row per transcript; speakers, segments,
// and derived artifacts are stored as JSON columns since the service
// always reads and writes them as whole arrays.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skillsenselab/meetscribe/store"
	"github.com/skillsenselab/meetscribe/transcript"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is the SQLite-backed transcript store.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open initializes or connects to the transcript database and applies
// the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
            version INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS transcripts (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            status TEXT NOT NULL,
            text TEXT NOT NULL DEFAULT '',
            text_with_speakers TEXT NOT NULL DEFAULT '',
            speakers_json TEXT NOT NULL DEFAULT '[]',
            segments_json TEXT NOT NULL DEFAULT '[]',
            language_code TEXT,
            duration_seconds REAL,
            translations_json TEXT NOT NULL DEFAULT '{}',
            analysis_ids_json TEXT NOT NULL DEFAULT '[]',
            version INTEGER NOT NULL DEFAULT 0,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_user ON transcripts(user_id)`,
		`CREATE TABLE IF NOT EXISTS analyses (
            id TEXT PRIMARY KEY,
            transcript_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            kind TEXT NOT NULL DEFAULT '',
            content TEXT NOT NULL DEFAULT '',
            FOREIGN KEY (transcript_id) REFERENCES transcripts(id) ON DELETE CASCADE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_transcript ON analyses(transcript_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (1)`); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const transcriptColumns = "id, user_id, status, text, text_with_speakers, speakers_json, segments_json, language_code, duration_seconds, translations_json, analysis_ids_json, version, created_at, updated_at"

// GetTranscript fetches a transcript by id.
func (s *Store) GetTranscript(ctx context.Context, id string) (*transcript.Transcript, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts WHERE id = ?`, id)
	t, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return t, nil
}

// SaveTranscript inserts or fully replaces a transcript record.
func (s *Store) SaveTranscript(ctx context.Context, t *transcript.Transcript) error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	now := time.Now().UTC()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	speakersJSON, err := json.Marshal(orEmptySpeakers(t.Speakers))
	if err != nil {
		return fmt.Errorf("marshal speakers: %w", err)
	}
	segmentsJSON, err := json.Marshal(orEmptySegments(t.SpeakerSegments))
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	translationsJSON, err := json.Marshal(orEmptyMap(t.Translations))
	if err != nil {
		return fmt.Errorf("marshal translations: %w", err)
	}
	analysisIDsJSON, err := json.Marshal(orEmptyStrings(t.GeneratedAnalysisIDs))
	if err != nil {
		return fmt.Errorf("marshal analysis ids: %w", err)
	}

	_, err = s.execWithRetry(ctx,
		`INSERT INTO transcripts (`+transcriptColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            user_id = excluded.user_id,
            status = excluded.status,
            text = excluded.text,
            text_with_speakers = excluded.text_with_speakers,
            speakers_json = excluded.speakers_json,
            segments_json = excluded.segments_json,
            language_code = excluded.language_code,
            duration_seconds = excluded.duration_seconds,
            translations_json = excluded.translations_json,
            analysis_ids_json = excluded.analysis_ids_json,
            version = excluded.version,
            updated_at = excluded.updated_at`,
		t.ID,
		t.UserID,
		string(t.Status),
		t.Text,
		t.TextWithSpeakers,
		string(speakersJSON),
		string(segmentsJSON),
		nullableString(t.LanguageCode),
		nullableFloat(t.DurationSeconds),
		string(translationsJSON),
		string(analysisIDsJSON),
		t.Version,
		createdAt.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

// UpdateTranscript applies a correction patch conditionally on the expected
// version. The version predicate in the WHERE clause is what makes the
// optimistic check atomic with the write.
func (s *Store) UpdateTranscript(ctx context.Context, id string, patch store.Patch) (*transcript.Transcript, error) {
	segmentsJSON, err := json.Marshal(orEmptySegments(patch.SpeakerSegments))
	if err != nil {
		return nil, fmt.Errorf("marshal segments: %w", err)
	}
	translationsJSON, err := json.Marshal(orEmptyMap(patch.Translations))
	if err != nil {
		return nil, fmt.Errorf("marshal translations: %w", err)
	}
	analysisIDsJSON, err := json.Marshal(orEmptyStrings(patch.AnalysisIDs))
	if err != nil {
		return nil, fmt.Errorf("marshal analysis ids: %w", err)
	}

	res, err := s.execWithRetry(ctx,
		`UPDATE transcripts
         SET text = ?, text_with_speakers = ?, segments_json = ?,
             translations_json = ?, analysis_ids_json = ?,
             version = version + 1, updated_at = ?
         WHERE id = ? AND version = ?`,
		patch.Text,
		patch.TextWithSpeakers,
		string(segmentsJSON),
		string(translationsJSON),
		string(analysisIDsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		patch.ExpectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("update transcript: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Disambiguate a lost version race from a missing row.
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM transcripts WHERE id = ?`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check transcript: %w", err)
		}
		if exists == 0 {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrVersionConflict
	}
	return s.GetTranscript(ctx, id)
}

// RenameSpeaker sets the custom display name for a speaker.
func (s *Store) RenameSpeaker(ctx context.Context, id string, speakerID int, name string) (*transcript.Transcript, error) {
	t, err := s.GetTranscript(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range t.Speakers {
		if t.Speakers[i].SpeakerID == speakerID {
			t.Speakers[i].CustomName = name
			found = true
			break
		}
	}
	if !found {
		return nil, store.ErrNotFound
	}

	speakersJSON, err := json.Marshal(t.Speakers)
	if err != nil {
		return nil, fmt.Errorf("marshal speakers: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		`UPDATE transcripts SET speakers_json = ?, updated_at = ? WHERE id = ?`,
		string(speakersJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("rename speaker: %w", err)
	}
	return s.GetTranscript(ctx, id)
}

// AddAnalysis stores a user-generated analysis tied to a transcript.
func (s *Store) AddAnalysis(ctx context.Context, a store.Analysis) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO analyses (id, transcript_id, user_id, kind, content) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.TranscriptID, a.UserID, a.Kind, a.Content,
	)
	if err != nil {
		return fmt.Errorf("add analysis: %w", err)
	}
	return nil
}

// DeleteAnalyses removes all analyses for the transcript owned by the user
// and returns the deleted ids.
func (s *Store) DeleteAnalyses(ctx context.Context, transcriptID, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM analyses WHERE transcript_id = ? AND user_id = ?`,
		transcriptID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = s.execWithRetry(ctx,
		`DELETE FROM analyses WHERE transcript_id = ? AND user_id = ?`,
		transcriptID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete analyses: %w", err)
	}
	return ids, nil
}

func scanTranscript(scanner interface{ Scan(dest ...any) error }) (*transcript.Transcript, error) {
	var (
		id               string
		userID           string
		statusStr        string
		text             string
		textWithSpeakers string
		speakersJSON     string
		segmentsJSON     string
		languageCode     sql.NullString
		durationSeconds  sql.NullFloat64
		translationsJSON string
		analysisIDsJSON  string
		version          int64
		createdRaw       string
		updatedRaw       string
	)

	if err := scanner.Scan(
		&id,
		&userID,
		&statusStr,
		&text,
		&textWithSpeakers,
		&speakersJSON,
		&segmentsJSON,
		&languageCode,
		&durationSeconds,
		&translationsJSON,
		&analysisIDsJSON,
		&version,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	t := &transcript.Transcript{
		ID:               id,
		UserID:           userID,
		Status:           transcript.Status(statusStr),
		Text:             text,
		TextWithSpeakers: textWithSpeakers,
		LanguageCode:     languageCode.String,
		Version:          version,
	}
	if durationSeconds.Valid {
		d := durationSeconds.Float64
		t.DurationSeconds = &d
	}
	if err := json.Unmarshal([]byte(speakersJSON), &t.Speakers); err != nil {
		return nil, fmt.Errorf("unmarshal speakers: %w", err)
	}
	if err := json.Unmarshal([]byte(segmentsJSON), &t.SpeakerSegments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	if err := json.Unmarshal([]byte(translationsJSON), &t.Translations); err != nil {
		return nil, fmt.Errorf("unmarshal translations: %w", err)
	}
	if err := json.Unmarshal([]byte(analysisIDsJSON), &t.GeneratedAnalysisIDs); err != nil {
		return nil, fmt.Errorf("unmarshal analysis ids: %w", err)
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		t.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		t.UpdatedAt = updated
	}
	return t, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func orEmptySpeakers(s []transcript.Speaker) []transcript.Speaker {
	if s == nil {
		return []transcript.Speaker{}
	}
	return s
}

func orEmptySegments(s []transcript.SpeakerSegment) []transcript.SpeakerSegment {
	if s == nil {
		return []transcript.SpeakerSegment{}
	}
	return s
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
