// Package correction routes free-text correction instructions to the
// cheapest sufficient mechanism, applies them while preserving segment
// timestamps and confidence, and produces an auditable diff before any
// mutation is committed.
package correction

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillsenselab/meetscribe/errors"
	"github.com/skillsenselab/meetscribe/llm"
	"github.com/skillsenselab/meetscribe/logger"
	"github.com/skillsenselab/meetscribe/observability"
	"github.com/skillsenselab/meetscribe/resilience"
	"github.com/skillsenselab/meetscribe/store"
	"github.com/skillsenselab/meetscribe/transcript"
)

const defaultRewriteTimeout = 60 * time.Second

// rewriteSystemPrompt pins the rewrite provider to the block format that
// Reassemble depends on.
const rewriteSystemPrompt = "You are a transcript editor. You will receive a meeting transcript " +
	"as blocks of the form \"Speaker X: text\" separated by blank lines, and an editing instruction. " +
	"Apply the instruction to the text only. Return the full transcript in exactly the same format: " +
	"the same number of blocks, the same speaker labels, in the same order. " +
	"Never merge, split, reorder, or drop blocks."

// Service is the correction orchestrator: Router → Applier(s) → Diff
// Generator for previews, plus persistence and cache invalidation for
// applies.
type Service struct {
	store          store.Store
	rewriter       llm.Provider
	log            *logger.Logger
	tracer         trace.Tracer
	applying       *applyGuard
	rewriteTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithRewriteTimeout bounds the rewrite provider call, the only suspension
// point with unbounded external latency.
func WithRewriteTimeout(d time.Duration) Option {
	return func(s *Service) { s.rewriteTimeout = d }
}

// NewService creates the correction orchestrator. The rewriter may be nil,
// in which case instructions needing a model rewrite fail with
// PROVIDER_FAILURE instead of being silently skipped.
func NewService(st store.Store, rewriter llm.Provider, opts ...Option) *Service {
	s := &Service{
		store:          st,
		rewriter:       rewriter,
		log:            logger.WithComponent("correction"),
		tracer:         observability.Tracer("correction"),
		applying:       newApplyGuard(),
		rewriteTimeout: defaultRewriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview computes the correction diff without touching persisted state.
// Previews are read-only and safe to repeat concurrently for the same
// transcript.
func (s *Service) Preview(ctx context.Context, transcriptID, userID, instruction string) (*Preview, error) {
	ctx, span := s.tracer.Start(ctx, "correction.preview",
		trace.WithAttributes(attribute.String("transcript.id", transcriptID)))
	defer span.End()

	t, err := s.validate(ctx, transcriptID, userID, instruction)
	if err != nil {
		return nil, err
	}

	corrected, _, err := s.compute(ctx, t, instruction)
	if err != nil {
		return nil, err
	}

	diff := GenerateDiff(t.SpeakerSegments, corrected)
	return &Preview{
		Diff: diff,
		Summary: PreviewSummary{
			TotalChanges:     len(diff),
			AffectedSegments: len(diff),
		},
	}, nil
}

// Apply runs the correction and commits it: one atomic transcript update,
// then unconditional invalidation of stored translations and user-generated
// analyses. Nothing is written before the full corrected segment array has
// been computed in memory, so any failure up to the update leaves the
// transcript untouched.
func (s *Service) Apply(ctx context.Context, transcriptID, userID, instruction string) (*ApplyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "correction.apply",
		trace.WithAttributes(attribute.String("transcript.id", transcriptID)))
	defer span.End()

	if !s.applying.tryAcquire(transcriptID) {
		return nil, errors.Conflict(transcriptID)
	}
	defer s.applying.release(transcriptID)
	started := time.Now()

	t, err := s.validate(ctx, transcriptID, userID, instruction)
	if err != nil {
		return nil, err
	}

	corrected, route, err := s.compute(ctx, t, instruction)
	if err != nil {
		return nil, err
	}

	diff := GenerateDiff(t.SpeakerSegments, corrected)
	if len(diff) == 0 {
		// Nothing changed; skip the write and leave derived artifacts alone.
		return &ApplyResponse{
			Success:             true,
			Transcription:       t,
			DeletedAnalysisIDs:  []string{},
			ClearedTranslations: []string{},
		}, nil
	}

	cleared := translationKeys(t.Translations)

	updated, err := s.store.UpdateTranscript(ctx, transcriptID, store.Patch{
		Text:             transcript.PlainText(corrected),
		TextWithSpeakers: transcript.FormatWithSpeakers(corrected),
		SpeakerSegments:  corrected,
		Translations:     map[string]string{},
		AnalysisIDs:      []string{},
		ExpectedVersion:  t.Version,
	})
	if err != nil {
		if stderrors.Is(err, store.ErrVersionConflict) {
			return nil, errors.Conflict(transcriptID)
		}
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("transcript", transcriptID)
		}
		return nil, errors.StorageError(err)
	}

	// Invalidation is an unconditional side effect of the commit. A failure
	// here is logged but never rolls the text commit back; the caller is
	// told which ids were actually deleted.
	deleted, err := s.store.DeleteAnalyses(ctx, transcriptID, userID)
	if err != nil {
		s.log.Error("Analysis invalidation failed after commit", logger.Fields(
			logger.FieldTranscriptID, transcriptID,
			logger.FieldError, err.Error(),
		))
		deleted = nil
	}
	if deleted == nil {
		deleted = []string{}
	}

	s.log.Info("Correction applied",
		logger.DurationFields("apply", time.Since(started)),
		logger.Fields(
			logger.FieldTranscriptID, transcriptID,
			"changed_segments", len(diff),
			"simple_rules", len(route.SimpleReplacements),
			"complex_corrections", len(route.ComplexCorrections),
			"cleared_translations", len(cleared),
			"deleted_analyses", len(deleted),
		))

	return &ApplyResponse{
		Success:             true,
		Transcription:       updated,
		DeletedAnalysisIDs:  deleted,
		ClearedTranslations: cleared,
	}, nil
}

// validate enforces the entry guards: the transcript must exist, belong to
// the caller, be fully processed, and carry diarization segments.
func (s *Service) validate(ctx context.Context, transcriptID, userID, instruction string) (*transcript.Transcript, error) {
	if instruction == "" {
		return nil, errors.MissingField("instruction")
	}

	t, err := s.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("transcript", transcriptID)
		}
		return nil, errors.StorageError(err)
	}
	if t.UserID != userID {
		// Ownership failures look identical to missing transcripts.
		return nil, errors.NotFound("transcript", transcriptID)
	}
	if t.Status != transcript.StatusCompleted || t.Text == "" {
		return nil, errors.NotReady(transcriptID)
	}
	if len(t.SpeakerSegments) == 0 {
		return nil, errors.NoSegments(transcriptID)
	}
	return t, nil
}

// compute runs routing and both appliers, producing the full corrected
// segment array in memory. Deterministic replacements run first and are
// authoritative; the rewrite provider sees their output and replaces only
// the segments it touched, positionally.
func (s *Service) compute(ctx context.Context, t *transcript.Transcript, instruction string) ([]transcript.SpeakerSegment, RouteResult, error) {
	ctx, span := s.tracer.Start(ctx, "correction.route")
	route := AnalyzeAndRoute(t.SpeakerSegments, instruction)
	span.End()

	corrected, _ := ApplySimpleReplacements(t.SpeakerSegments, route.SimpleReplacements)

	if len(route.ComplexCorrections) > 0 {
		rewritten, err := s.rewrite(ctx, corrected, route.ComplexCorrections)
		if err != nil {
			return nil, route, err
		}
		corrected = rewritten
	}
	return corrected, route, nil
}

// rewrite sends the full speaker-labeled transcript and the residual
// instructions to the rewrite provider, then maps the response back onto the
// segments. Runs under the configured timeout.
func (s *Service) rewrite(ctx context.Context, segments []transcript.SpeakerSegment, instructions []string) ([]transcript.SpeakerSegment, error) {
	if s.rewriter == nil {
		return nil, errors.ProviderFailure("text generation", stderrors.New("no rewrite provider configured"))
	}

	ctx, span := s.tracer.Start(ctx, "correction.rewrite",
		trace.WithAttributes(attribute.Int("instructions", len(instructions))))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.rewriteTimeout)
	defer cancel()

	prompt := "Instruction:\n"
	for _, ins := range instructions {
		prompt += "- " + ins + "\n"
	}
	prompt += "\nTranscript:\n\n" + transcript.FormatWithSpeakers(segments)

	resp, err := s.rewriter.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: rewriteSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Temperature:  0.1,
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Timeout("transcript rewrite").WithCause(err)
		}
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			// The breaker tripped on earlier failures; this request never
			// reached the provider.
			return nil, errors.ExternalServiceError("text generation", err)
		}
		return nil, errors.ProviderFailure("text generation", err)
	}

	return Reassemble(segments, resp.Content)
}

func translationKeys(translations map[string]string) []string {
	keys := make([]string, 0, len(translations))
	for k := range translations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
