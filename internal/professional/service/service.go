// Package service holds the upsert reconciler and the bulk upsert
// orchestrator for professional records.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"rolodex/internal/professional/metrics"
	"rolodex/internal/professional/models"
	dErrors "rolodex/pkg/domain-errors"
	"rolodex/pkg/platform/sentinel"
)

// Store is the persistence seam for professional records. Upsert performs
// one atomic find-or-create keyed on the given column, returning the
// persisted record and whether it was created.
type Store interface {
	Upsert(ctx context.Context, key models.MatchKey, value string, c models.Candidate) (*models.Professional, bool, error)
	List(ctx context.Context, source models.Source) ([]*models.Professional, error)
}

// ParseFunc validates one raw batch item into a normalized candidate.
// Validation failures return a domain error carrying a field mapping.
type ParseFunc func(raw json.RawMessage) (models.Candidate, error)

type serviceConfig struct {
	tx      StoreTx
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option customizes a Service.
type Option func(*serviceConfig)

func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// Service orchestrates professional record reads and upserts.
type Service struct {
	store   Store
	tx      StoreTx
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = newInMemoryStoreTx()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{store: store, tx: cfg.tx, logger: cfg.logger, metrics: cfg.metrics}
}

// List returns stored records newest-first, optionally filtered by source.
func (s *Service) List(ctx context.Context, source string) ([]*models.Professional, error) {
	records, err := s.store.List(ctx, models.Source(source))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list professionals")
	}
	return records, nil
}

// Upsert reconciles one normalized candidate against the store: matched by
// email when present, by phone otherwise. Every candidate field replaces
// the stored value. Returns the persisted record and whether it was created.
func (s *Service) Upsert(ctx context.Context, c models.Candidate) (*models.Professional, bool, error) {
	key, value := c.MatchKey()
	if value == "" {
		// Validation rejects this upstream; kept as a hard invariant here.
		return nil, false, dErrors.New(dErrors.CodeValidation, "at least one of email or phone must be provided")
	}

	rec, created, err := s.store.Upsert(ctx, key, value, c)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.RecordUpsert("conflict")
			return nil, false, dErrors.New(dErrors.CodeConflict, conflictMessage(err))
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to upsert professional")
	}

	if created {
		s.metrics.RecordUpsert("created")
	} else {
		s.metrics.RecordUpsert("updated")
	}
	return rec, created, nil
}

// Per-item terminal states of a batch. An item never transitions back.
const (
	itemCommitted = "committed" // Pending -> Validated -> Committed
	itemRejected  = "rejected"  // Pending -> Rejected (validation failure)
	itemFailed    = "failed"    // Pending -> Validated -> Failed (persistence failure)
)

type itemOutcome struct {
	index   int
	raw     json.RawMessage
	state   string
	record  *models.Professional
	created bool
	reason  any
}

// BulkFailure reports one failed batch item with its original position and
// input echoed back.
type BulkFailure struct {
	Index  int             `json:"index"`
	Record json.RawMessage `json:"record"`
	Reason any             `json:"reason"`
}

// BulkResult partitions a batch into committed records and failures, both
// ordered by original batch index.
type BulkResult struct {
	Success []*models.Professional `json:"success"`
	Failed  []BulkFailure          `json:"failed"`
}

// BulkUpsert drives the reconciler over an ordered batch inside one
// transaction scope. A failing item is reported and skipped, never aborting
// the batch; only a catastrophic store failure (connectivity, context
// cancellation) rolls back the whole batch and returns an error.
func (s *Service) BulkUpsert(ctx context.Context, items []json.RawMessage, parse ParseFunc) (*BulkResult, error) {
	outcomes := make([]itemOutcome, 0, len(items))

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i, raw := range items {
			out := itemOutcome{index: i, raw: raw}

			candidate, err := parse(raw)
			if err != nil {
				out.state = itemRejected
				out.reason = failureReason(err)
				s.logger.WarnContext(txCtx, "bulk upsert row rejected",
					"index", i, "reason", err.Error())
				outcomes = append(outcomes, out)
				continue
			}

			key, value := candidate.MatchKey()
			rec, created, err := s.store.Upsert(txCtx, key, value, candidate)
			if err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					out.state = itemFailed
					out.reason = conflictMessage(err)
					s.logger.WarnContext(txCtx, "bulk upsert row failed",
						"index", i, "reason", err.Error())
					outcomes = append(outcomes, out)
					continue
				}
				// Catastrophic: abort the batch, nothing commits.
				return err
			}

			out.state = itemCommitted
			out.record = rec
			out.created = created
			outcomes = append(outcomes, out)
		}
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "bulk upsert aborted")
	}

	result := &BulkResult{
		Success: make([]*models.Professional, 0, len(outcomes)),
		Failed:  make([]BulkFailure, 0),
	}
	for _, out := range outcomes {
		s.metrics.RecordBatchItem(out.state)
		switch out.state {
		case itemCommitted:
			if out.created {
				s.metrics.RecordUpsert("created")
			} else {
				s.metrics.RecordUpsert("updated")
			}
			result.Success = append(result.Success, out.record)
		default:
			result.Failed = append(result.Failed, BulkFailure{
				Index:  out.index,
				Record: out.raw,
				Reason: out.reason,
			})
		}
	}
	return result, nil
}

// failureReason prefers the field mapping of a validation error, falling
// back to the message.
func failureReason(err error) any {
	if fields := dErrors.FieldsOf(err); fields != nil {
		return fields
	}
	return err.Error()
}

// conflictMessage strips the sentinel suffix from a store conflict error so
// callers see only the human-readable part.
func conflictMessage(err error) string {
	msg := err.Error()
	return strings.TrimSuffix(msg, ": "+sentinel.ErrConflict.Error())
}
