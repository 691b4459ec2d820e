// Package api registers the HTTP routes for transcript ingestion,
// retrieval, speaker renaming, and the correction preview/apply flow.
package api

import (
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/meetscribe/correction"
	"github.com/skillsenselab/meetscribe/errors"
	"github.com/skillsenselab/meetscribe/ingest"
	"github.com/skillsenselab/meetscribe/logger"
	"github.com/skillsenselab/meetscribe/server"
	"github.com/skillsenselab/meetscribe/store"
	"github.com/skillsenselab/meetscribe/util"
	"github.com/skillsenselab/meetscribe/validation"
)

// userIDHeader carries the authenticated user id, set by the upstream
// gateway.
const userIDHeader = "X-User-Id"

// Handler owns the transcript HTTP surface.
type Handler struct {
	ingest      *ingest.Service
	corrections *correction.Service
	store       store.Store
	log         *logger.Logger
}

// NewHandler creates the transcript API handler.
func NewHandler(ing *ingest.Service, corr *correction.Service, st store.Store) *Handler {
	return &Handler{
		ingest:      ing,
		corrections: corr,
		store:       st,
		log:         logger.WithComponent("api"),
	}
}

// Register mounts all transcript routes on the engine.
func (h *Handler) Register(engine *gin.Engine) {
	group := engine.Group("/api/transcripts")
	group.POST("", h.createTranscript)
	group.GET("/:id", h.getTranscript)
	group.PUT("/:id/speakers/:speakerId/name", h.renameSpeaker)
	group.POST("/:id/correction/preview", h.previewCorrection)
	group.POST("/:id/correction/apply", h.applyCorrection)
}

type createTranscriptRequest struct {
	AudioURL       string `json:"audioUrl" binding:"required"`
	MeetingContext string `json:"meetingContext"`
	LanguageCode   string `json:"languageCode"`
}

func (h *Handler) createTranscript(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req createTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}

	t, err := h.ingest.Submit(c.Request.Context(), ingest.Request{
		AudioURL:       req.AudioURL,
		UserID:         userID,
		MeetingContext: req.MeetingContext,
		LanguageCode:   req.LanguageCode,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, t)
}

func (h *Handler) getTranscript(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	t, err := h.store.GetTranscript(c.Request.Context(), id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			server.RespondWithError(c, errors.NotFound("transcript", id))
			return
		}
		server.RespondWithError(c, errors.StorageError(err))
		return
	}
	if t.UserID != userID {
		// Ownership failures look identical to missing transcripts.
		server.RespondWithError(c, errors.NotFound("transcript", id))
		return
	}
	server.RespondOK(c, t)
}

type renameSpeakerRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) renameSpeaker(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	speakerID, err := strconv.Atoi(c.Param("speakerId"))
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("speakerId", "must be an integer"))
		return
	}

	var req renameSpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.MissingField("name"))
		return
	}
	name := util.SanitizeString(req.Name)
	if appErr := validation.New().
		MaxLength("name", name, 100).
		Required("name", name).
		Validate(); appErr != nil {
		server.RespondWithError(c, appErr)
		return
	}

	// ownership check before any mutation
	t, err := h.store.GetTranscript(c.Request.Context(), id)
	if err != nil || t.UserID != userID {
		server.RespondWithError(c, errors.NotFound("transcript", id))
		return
	}

	updated, err := h.store.RenameSpeaker(c.Request.Context(), id, speakerID, name)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			server.RespondWithError(c, errors.NotFound("speaker", c.Param("speakerId")))
			return
		}
		server.RespondWithError(c, errors.StorageError(err))
		return
	}
	server.RespondOK(c, updated)
}

type correctionRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

func (h *Handler) previewCorrection(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.MissingField("instruction"))
		return
	}

	preview, err := h.corrections.Preview(c.Request.Context(), id, userID, req.Instruction)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, preview)
}

func (h *Handler) applyCorrection(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.MissingField("instruction"))
		return
	}

	resp, err := h.corrections.Apply(c.Request.Context(), id, userID, req.Instruction)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, resp)
}

// requireUser extracts the caller identity. Requests without one are
// rejected before any lookup.
func (h *Handler) requireUser(c *gin.Context) (string, bool) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		server.RespondWithError(c, errors.MissingField("X-User-Id"))
		return "", false
	}
	c.Set("user_id", userID)
	return userID, true
}
