// Package ingest runs the recognition intake flow: submit audio to the
// speech provider, poll until the job settles, normalize the raw payload
// into the canonical transcript model, and persist it.
package ingest

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillsenselab/meetscribe/asr"
	"github.com/skillsenselab/meetscribe/errors"
	"github.com/skillsenselab/meetscribe/logger"
	"github.com/skillsenselab/meetscribe/observability"
	"github.com/skillsenselab/meetscribe/resilience"
	"github.com/skillsenselab/meetscribe/store"
	"github.com/skillsenselab/meetscribe/transcript"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 30 * time.Minute
)

var errNoRecognizer = stderrors.New("no recognition provider configured")

// Request describes one audio ingestion.
type Request struct {
	// AudioURL is a provider-reachable URL of the recording.
	AudioURL string
	// UserID is the owner of the resulting transcript.
	UserID string
	// MeetingContext is optional free text about the meeting. Names and
	// terms from it are fed to the recognizer as vocabulary boost.
	MeetingContext string
	// LanguageCode requests a specific language; empty enables detection.
	LanguageCode string
}

// Service drives recognition jobs from submission to stored transcript.
type Service struct {
	store        store.Store
	recognizer   asr.Provider
	log          *logger.Logger
	tracer       trace.Tracer
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithPollInterval sets the delay between provider polls.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithPollTimeout bounds how long a job may stay non-terminal.
func WithPollTimeout(d time.Duration) Option {
	return func(s *Service) { s.pollTimeout = d }
}

// NewService creates an ingestion service.
func NewService(st store.Store, recognizer asr.Provider, opts ...Option) *Service {
	s := &Service{
		store:        st,
		recognizer:   recognizer,
		log:          logger.WithComponent("ingest"),
		tracer:       observability.Tracer("ingest"),
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit registers a new transcript record, sends the audio to the
// recognition provider, and processes the job in the background. The
// returned transcript is in the processing state; callers observe
// completion by re-fetching it.
func (s *Service) Submit(ctx context.Context, req Request) (*transcript.Transcript, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.submit")
	defer span.End()

	if req.AudioURL == "" {
		return nil, errors.MissingField("audioUrl")
	}
	if req.UserID == "" {
		return nil, errors.MissingField("userId")
	}
	if s.recognizer == nil || !s.recognizer.IsAvailable(ctx) {
		return nil, errors.ProviderFailure("speech recognition", errNoRecognizer)
	}

	t := &transcript.Transcript{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Status: transcript.StatusProcessing,
	}
	if err := s.store.SaveTranscript(ctx, t); err != nil {
		return nil, errors.StorageError(err)
	}

	opts := asr.SubmitOptions{
		SpeakerLabels:     true,
		LanguageDetection: req.LanguageCode == "",
		WordBoost:         asr.BuildWordBoost(req.MeetingContext),
	}
	jobID, err := s.recognizer.Submit(ctx, req.AudioURL, opts)
	if err != nil {
		s.markFailed(ctx, t.ID, err.Error())
		return nil, errors.ProviderFailure(s.recognizer.Name(), err)
	}
	span.SetAttributes(
		attribute.String("transcript.id", t.ID),
		attribute.String("job.id", jobID),
	)

	s.log.Info("Recognition job submitted", logger.Fields(
		logger.FieldTranscriptID, t.ID,
		logger.FieldProvider, s.recognizer.Name(),
		"job_id", jobID,
		"word_boost", len(opts.WordBoost),
	))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.pollTimeout)
		defer cancel()
		s.process(ctx, t.ID, jobID)
	}()

	return t.Clone(), nil
}

// process polls the recognition job to completion and stores the
// normalized transcript. Failures end in the error status; the record is
// never deleted.
func (s *Service) process(ctx context.Context, transcriptID, jobID string) {
	ctx, span := s.tracer.Start(ctx, "ingest.process",
		trace.WithAttributes(attribute.String("transcript.id", transcriptID)))
	defer span.End()

	result, err := s.awaitResult(ctx, jobID)
	if err != nil {
		s.log.Error("Recognition job failed", logger.Fields(
			logger.FieldTranscriptID, transcriptID,
			"job_id", jobID,
			logger.FieldError, err.Error(),
		))
		s.markFailed(ctx, transcriptID, err.Error())
		return
	}

	normalized, err := transcript.Normalize(result)
	if err != nil {
		s.log.Error("Normalization failed", logger.Fields(
			logger.FieldTranscriptID, transcriptID,
			logger.FieldError, err.Error(),
		))
		s.markFailed(ctx, transcriptID, err.Error())
		return
	}

	stored, err := s.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		s.log.Error("Transcript lookup failed after recognition", logger.Fields(
			logger.FieldTranscriptID, transcriptID,
			logger.FieldError, err.Error(),
		))
		return
	}

	// the pending record keeps its identity and ownership; everything else
	// comes from the normalized result
	stored.Status = transcript.StatusCompleted
	stored.Speakers = normalized.Speakers
	stored.SpeakerSegments = normalized.SpeakerSegments
	stored.Text = transcript.PlainText(normalized.SpeakerSegments)
	stored.TextWithSpeakers = normalized.TextWithSpeakers
	stored.LanguageCode = normalized.LanguageCode
	stored.DurationSeconds = normalized.DurationSeconds

	if err := s.store.SaveTranscript(ctx, stored); err != nil {
		s.log.Error("Transcript save failed", logger.Fields(
			logger.FieldTranscriptID, transcriptID,
			logger.FieldError, err.Error(),
		))
		return
	}

	s.log.Info("Transcript completed", logger.Fields(
		logger.FieldTranscriptID, transcriptID,
		"segments", len(stored.SpeakerSegments),
		"speakers", len(stored.Speakers),
		"language", stored.LanguageCode,
	))
}

// awaitResult polls until the job reaches a terminal status or the
// context expires. Individual polls are retried so a transient provider
// hiccup does not fail a long-running job.
func (s *Service) awaitResult(ctx context.Context, jobID string) (*asr.Result, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.log.Warn("Recognition poll retry", logger.Fields(
				"job_id", jobID,
				"attempt", attempt,
				logger.FieldError, err.Error(),
			))
		},
	}

	for {
		result, err := resilience.Retry(ctx, retryCfg, func() (*asr.Result, error) {
			return s.recognizer.Poll(ctx, jobID)
		})
		if err != nil {
			return nil, err
		}
		if result.Status.Terminal() {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Timeout("speech recognition").WithCause(ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Service) markFailed(ctx context.Context, transcriptID, reason string) {
	stored, err := s.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return
	}
	stored.Status = transcript.StatusError
	if err := s.store.SaveTranscript(ctx, stored); err != nil {
		s.log.Error("Failed to mark transcript as errored",
			logger.ErrorFields("save", err),
			logger.Fields(logger.FieldTranscriptID, transcriptID),
		)
		return
	}
	s.log.Warn("Transcript marked as errored", logger.Fields(
		logger.FieldTranscriptID, transcriptID,
		"reason", reason,
	))
}
