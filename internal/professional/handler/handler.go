// Package handler exposes the professional-record HTTP endpoints.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rolodex/internal/platform/middleware"
	"rolodex/internal/professional/models"
	"rolodex/internal/professional/service"
	"rolodex/internal/resume"
	"rolodex/internal/transport/http/shared"
	dErrors "rolodex/pkg/domain-errors"
	"rolodex/pkg/requestcontext"
)

// maxResumeSize caps resume uploads at 10 MB.
const maxResumeSize = 10 << 20

// Service defines the professional operations the handler needs.
type Service interface {
	List(ctx context.Context, source string) ([]*models.Professional, error)
	Upsert(ctx context.Context, c models.Candidate) (*models.Professional, bool, error)
	BulkUpsert(ctx context.Context, items []json.RawMessage, parse service.ParseFunc) (*service.BulkResult, error)
}

// ResumeParser defines the resume extraction capability.
type ResumeParser interface {
	Available() bool
	Parse(ctx context.Context, pdf []byte) (*resume.Extraction, error)
}

// Handler handles professional-record endpoints.
type Handler struct {
	logger        *slog.Logger
	professionals Service
	resumes       ResumeParser
}

// New creates a professional Handler.
func New(professionals Service, resumes ResumeParser, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		professionals: professionals,
		resumes:       resumes,
	}
}

// Register mounts the professional routes with their middleware chain.
func (h *Handler) Register(r chi.Router) {
	pr := chi.NewRouter()
	pr.Use(middleware.Recovery(h.logger))
	pr.Use(middleware.RequestID)
	pr.Use(middleware.RequestTime)
	pr.Use(middleware.Logger(h.logger))
	pr.Use(middleware.Timeout(60 * time.Second))
	pr.Get("/", h.handleList)
	pr.Post("/", h.handleUpsert)
	pr.Post("/bulk", h.handleBulkUpsert)
	pr.Post("/parse-resume", h.handleParseResume)

	r.Mount("/professionals", pr)
}

// handleList returns all records, optionally filtered by source.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.professionals.List(ctx, r.URL.Query().Get("source"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list professionals",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

// handleUpsert creates or updates one record, matching by email first and
// phone second. 201 on create, 200 on update.
func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	candidate, err := ParseCandidate(body)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid professional record",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	record, created, err := h.professionals.Upsert(ctx, candidate)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) || dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "professional upsert rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to upsert professional",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.WriteJSON(w, status, record)
}

// handleBulkUpsert processes an ordered batch, reporting per-item failures
// without aborting the batch. Always 200 unless the body is not an array.
func (h *Handler) handleBulkUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// Decode accepts "null" as a nil slice, which is not a list; check the
	// shape explicitly. Unmarshal also rejects trailing garbage.
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a list of professional records."))
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a list of professional records."))
		return
	}

	result, err := h.professionals.BulkUpsert(ctx, items, ParseCandidate)
	if err != nil {
		h.logger.ErrorContext(ctx, "bulk upsert aborted",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

// handleParseResume extracts structured fields from an uploaded PDF resume.
func (h *Handler) handleParseResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if !h.resumes.Available() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnavailable,
			"Resume parsing is not configured. Set OPENAI_API_KEY to enable it."))
		return
	}

	// Allow some slack over the documented cap for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize+(1<<20))
	if err := r.ParseMultipartForm(maxResumeSize + (1 << 20)); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"File too large. Resume must not exceed 10MB."))
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "No resume file provided."))
		return
	}
	defer file.Close()

	if header.Size > maxResumeSize {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"File too large. Resume must not exceed 10MB."))
		return
	}
	if !isPDF(header.Filename, header.Header.Get("Content-Type")) {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"Invalid file type. Only PDF files are allowed."))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Could not read resume file."))
		return
	}

	extraction, err := h.resumes.Parse(ctx, data)
	if err != nil {
		h.logger.ErrorContext(ctx, "resume parsing failed",
			"request_id", requestID,
			"filename", header.Filename,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, parseResumeResponse{
		Success: true,
		Data:    extraction,
		Message: "Resume parsed successfully.",
	})
}

type parseResumeResponse struct {
	Success bool               `json:"success"`
	Data    *resume.Extraction `json:"data"`
	Message string             `json:"message"`
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return contentType == "application/pdf"
}
