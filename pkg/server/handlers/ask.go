package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/duocdien/pkg/pipeline"
	"github.com/soundprediction/duocdien/pkg/server/dto"
	"github.com/soundprediction/duocdien/pkg/types"
)

// Asker answers questions. *pipeline.Pipeline implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (*pipeline.Result, error)
	AskCypher(ctx context.Context, question string) (*pipeline.Result, error)
}

// AnswerObserver is told how each question was resolved.
type AnswerObserver func(mode, status string)

// AskHandler handles question answering requests
type AskHandler struct {
	asker   Asker
	logger  *slog.Logger
	observe AnswerObserver
}

// NewAskHandler creates a new ask handler. observe may be nil.
func NewAskHandler(a Asker, logger *slog.Logger, observe AnswerObserver) *AskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if observe == nil {
		observe = func(string, string) {}
	}
	return &AskHandler{asker: a, logger: logger, observe: observe}
}

// Ask handles POST /api/v1/ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	h.answer(c, req.Question, req.NormalizedMode())
}

// Cypher handles POST /api/v1/cypher
func (h *AskHandler) Cypher(c *gin.Context) {
	var req dto.CypherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	h.answer(c, req.Question, dto.ModeCypher)
}

func (h *AskHandler) answer(c *gin.Context, question, mode string) {
	if h.asker == nil {
		writeError(c, http.StatusServiceUnavailable, "not_ready", "question answering is not configured")
		return
	}
	ctx := c.Request.Context()

	var (
		res *pipeline.Result
		err error
	)
	if mode == dto.ModeCypher {
		res, err = h.asker.AskCypher(ctx, strings.TrimSpace(question))
	} else {
		res, err = h.asker.Ask(ctx, strings.TrimSpace(question))
	}
	if err != nil {
		status, code := classify(err)
		h.observe(mode, "error")
		h.logger.ErrorContext(ctx, "question failed",
			"mode", mode,
			"request_id", types.StringFromContext(ctx, types.ContextKeyRequestID),
			"error", err)
		writeError(c, status, code, err.Error())
		return
	}

	h.observe(mode, string(res.Status))
	resp := toAskResponse(res, mode)
	resp.RequestID = types.StringFromContext(ctx, types.ContextKeyRequestID)
	c.JSON(http.StatusOK, resp)
}

func toAskResponse(res *pipeline.Result, mode string) dto.AskResponse {
	out := dto.AskResponse{
		Question:   res.Question,
		Mode:       mode,
		Status:     string(res.Status),
		Answer:     res.Answer,
		Grounded:   res.Grounded,
		Entity:     res.Entity,
		Query:      res.Query,
		Rows:       res.Rows,
		Model:      res.Model,
		Cached:     res.Cached,
		DurationMS: res.Duration.Milliseconds(),
	}
	for _, r := range res.Context {
		out.Context = append(out.Context, dto.ContextRecord{
			Label:      r.Label,
			Relation:   r.Relation,
			Properties: r.Properties,
		})
	}
	return out
}
