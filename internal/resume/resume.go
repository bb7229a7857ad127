// Package resume extracts structured contact fields from uploaded PDF
// resumes, either by delegating to an OpenAI-compatible model API or with
// local heuristics.
package resume

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "rolodex/pkg/domain-errors"
)

// Extraction is the structured result of parsing a resume. Pointer fields
// are nil when the source of the field could not be found. Confidence is a
// 0-100 score per field, only populated by extractors that estimate it.
type Extraction struct {
	FullName    *string        `json:"full_name"`
	Email       *string        `json:"email"`
	Phone       *string        `json:"phone"`
	CompanyName *string        `json:"company_name"`
	JobTitle    *string        `json:"job_title"`
	Confidence  map[string]int `json:"confidence,omitempty"`
}

// Extractor turns raw PDF bytes into an Extraction.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (*Extraction, error)
}

// defaultParseTimeout bounds the external extraction call.
const defaultParseTimeout = 30 * time.Second

// Service wraps an Extractor with capability gating, a caller-visible
// timeout, and error classification. A nil extractor means parsing is
// unavailable; callers get a 503-class error, never a crash.
type Service struct {
	extractor Extractor
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *Metrics
}

func NewService(extractor Extractor, timeout time.Duration, logger *slog.Logger, m *Metrics) *Service {
	if timeout <= 0 {
		timeout = defaultParseTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: extractor, timeout: timeout, logger: logger, metrics: m}
}

// Available reports whether resume parsing is configured.
func (s *Service) Available() bool {
	return s.extractor != nil
}

// Parse extracts fields from the PDF. Timeouts surface as
// service-unavailable-class errors and are never retried here.
func (s *Service) Parse(ctx context.Context, pdf []byte) (*Extraction, error) {
	if !s.Available() {
		s.metrics.RecordParse("unavailable")
		return nil, dErrors.New(dErrors.CodeUnavailable,
			"Resume parsing is not configured. Set OPENAI_API_KEY to enable it.")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	extraction, err := s.extractor.Extract(ctx, pdf)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.metrics.RecordParse("timeout")
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "resume parsing timed out")
		}
		s.metrics.RecordParse("error")
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "resume parsing failed")
	}

	s.metrics.RecordParse("ok")
	return extraction, nil
}
