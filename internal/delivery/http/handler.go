package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/gin-gonic/gin"
)

// FormulaService is the usecase surface the handlers depend on
type FormulaService interface {
	ParseIngredient(raw string) domain.ParsedIngredient
	FormatDosage(input string) (string, error)
	SummarizeDosages(pairs []domain.HerbDosage) (string, bool)
	ResolveHerbName(ctx context.Context, name string) (*domain.HerbRecord, error)
	SuggestHerbs(ctx context.Context, name string) ([]domain.HerbSuggestion, error)
	ResolveFormula(ctx context.Context, name string) (*domain.FormulaResolution, error)
	FindFormulasContaining(ctx context.Context, herbs []string, strict bool) ([]domain.FormulaRecord, error)
	CompareFormulas(ctx context.Context, a, b string) (*domain.Overlap, error)
	TransferHerbs(ctx context.Context, formulaName string, held []string) (*domain.Transfer, error)
	Refresh(ctx context.Context) (*domain.Snapshot, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service FormulaService
	logger  logging.Logger
}

// NewHandler creates a new HTTP handler. A nil service makes every API
// endpoint answer 501.
func NewHandler(service FormulaService, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{
		service: service,
		logger:  logger.Named("http"),
	}
}

// ParseRequest carries raw ingredient lines
type ParseRequest struct {
	Lines []string `json:"lines" binding:"required,min=1"`
}

// FormatDosageRequest carries one user-typed dosage
type FormatDosageRequest struct {
	Dosage string `json:"dosage"`
}

// SummaryRequest carries herb/dosage pairs to aggregate
type SummaryRequest struct {
	Dosages []domain.HerbDosage `json:"dosages"`
}

// ContainingRequest carries the held herb names for a containment query
type ContainingRequest struct {
	Herbs  []string `json:"herbs"`
	Strict bool     `json:"strict"`
}

// DeltaRequest carries the herbs already held when transferring a formula
type DeltaRequest struct {
	Held []string `json:"held"`
}

// SummaryResponse is the aggregated dosage line
type SummaryResponse struct {
	Summary    string `json:"summary"`
	HasSummary bool   `json:"hasSummary"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "formulary-backend",
		"version": "1.0.0",
	})
}

// ParseIngredients splits raw ingredient lines into names and quantities
func (h *Handler) ParseIngredients(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lines must be a non-empty array of strings"})
		return
	}

	parsed := make([]domain.ParsedIngredient, len(req.Lines))
	for i, line := range req.Lines {
		parsed[i] = h.service.ParseIngredient(line)
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": parsed})
}

// FormatDosage validates and normalizes a user-typed dosage
func (h *Handler) FormatDosage(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req FormatDosageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	formatted, err := h.service.FormatDosage(req.Dosage)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dosage": formatted})
}

// SummarizeDosages aggregates herb dosages into one summary line
func (h *Handler) SummarizeDosages(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, ok := h.service.SummarizeDosages(req.Dosages)
	c.JSON(http.StatusOK, SummaryResponse{Summary: summary, HasSummary: ok})
}

// ResolveHerb resolves the name query parameter against the herb pool
func (h *Handler) ResolveHerb(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}

	herb, err := h.service.ResolveHerbName(c.Request.Context(), name)
	if errors.Is(err, domain.ErrHerbNotFound) {
		suggestions, suggestErr := h.service.SuggestHerbs(c.Request.Context(), name)
		if suggestErr != nil {
			suggestions = []domain.HerbSuggestion{}
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error":       err.Error(),
			"request_id":  c.GetString(requestIDKey),
			"suggestions": suggestions,
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"herb":        herb,
		"displayName": herb.DisplayName(),
	})
}

// SuggestHerbs lists herbs with names close to the name query parameter
func (h *Handler) SuggestHerbs(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}

	suggestions, err := h.service.SuggestHerbs(c.Request.Context(), name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// ResolveFormula resolves every ingredient of the named formula
func (h *Handler) ResolveFormula(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	resolution, err := h.service.ResolveFormula(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolution)
}

// FormulasContaining lists formulas that include every held herb
func (h *Handler) FormulasContaining(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req ContainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	formulas, err := h.service.FindFormulasContaining(c.Request.Context(), req.Herbs, req.Strict)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"formulas": formulas,
		"count":    len(formulas),
	})
}

// CompareFormulas reports the ingredients formulas a and b share
func (h *Handler) CompareFormulas(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	a, b := c.Query("a"), c.Query("b")
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a and b query parameters are required"})
		return
	}

	overlap, err := h.service.CompareFormulas(c.Request.Context(), a, b)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overlap)
}

// FormulaDelta lists what the named formula adds to the held herbs
func (h *Handler) FormulaDelta(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req DeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	transfer, err := h.service.TransferHerbs(c.Request.Context(), c.Param("name"), req.Held)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

// RefreshRecords reloads the herb and formula snapshot
func (h *Handler) RefreshRecords(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	snap, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"version":  snap.Version,
		"herbs":    len(snap.Herbs),
		"formulas": len(snap.Formulas),
		"loadedAt": snap.LoadedAt,
	})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.service == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "formula service not configured"})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			logging.String("path", c.FullPath()),
			logging.String("request_id", c.GetString(requestIDKey)),
			logging.Err(err))
	}
	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDKey),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrHerbNotFound), errors.Is(err, domain.ErrFormulaNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDosage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrSnapshotUnavailable), errors.Is(err, domain.ErrRecordSourceFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
