package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"rolodex/internal/professional/models"
	"rolodex/internal/professional/store"
	dErrors "rolodex/pkg/domain-errors"
	"rolodex/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.svc = newTestService(store.NewInMemory())
	s.ctx = context.Background()
}

func newTestService(st Store) *Service {
	return New(st, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func rawRecord(name, email, phone string) json.RawMessage {
	rec := map[string]string{"full_name": name, "source": "direct"}
	if email != "" {
		rec["email"] = email
	}
	if phone != "" {
		rec["phone"] = phone
	}
	out, _ := json.Marshal(rec)
	return out
}

// parseStrict mimics the handler's ParseFunc without importing it: records
// missing full_name or both contact keys fail validation.
func parseStrict(raw json.RawMessage) (models.Candidate, error) {
	var rec struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Source   string `json:"source"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Candidate{}, dErrors.WithFields(dErrors.CodeValidation, "invalid professional record",
			map[string][]string{"non_field_errors": {"Record must be a JSON object."}})
	}
	fields := map[string][]string{}
	if rec.FullName == "" {
		fields["full_name"] = []string{"This field is required."}
	}
	if rec.Email == "" && rec.Phone == "" {
		fields["non_field_errors"] = []string{"At least one of email or phone must be provided."}
	}
	if len(fields) > 0 {
		return models.Candidate{}, dErrors.WithFields(dErrors.CodeValidation, "invalid professional record", fields)
	}
	return models.Candidate{
		FullName: rec.FullName,
		Email:    rec.Email,
		Phone:    rec.Phone,
		Source:   models.Source(rec.Source),
	}, nil
}

// TestUpsert verifies single-record reconciliation.
func (s *ServiceSuite) TestUpsert() {
	s.Run("creates then updates by email", func() {
		c := models.Candidate{FullName: "Jane Doe", Email: "jane@example.com", Source: models.SourceDirect}

		rec, created, err := s.svc.Upsert(s.ctx, c)
		s.Require().NoError(err)
		s.True(created)

		c.CompanyName = "Acme"
		again, created, err := s.svc.Upsert(s.ctx, c)
		s.Require().NoError(err)
		s.False(created)
		s.Equal(rec.ID, again.ID)
		s.Equal("Acme", again.CompanyName)
	})

	s.Run("no contact key rejected", func() {
		_, _, err := s.svc.Upsert(s.ctx, models.Candidate{FullName: "Nobody", Source: models.SourceDirect})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("cross-key collision maps to conflict", func() {
		a := models.Candidate{FullName: "Owner", Email: "owner@example.com", Phone: "+15550100", Source: models.SourceDirect}
		_, _, err := s.svc.Upsert(s.ctx, a)
		s.Require().NoError(err)

		b := models.Candidate{FullName: "Intruder", Email: "other@example.com", Phone: "+15550100", Source: models.SourceDirect}
		_, _, err = s.svc.Upsert(s.ctx, b)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.NotContains(err.Error(), "conflict: conflict")
	})
}

// TestBulkUpsert verifies the batch orchestrator's partial-failure contract.
func (s *ServiceSuite) TestBulkUpsert() {
	s.Run("commits valid items and reports invalid ones in order", func() {
		items := []json.RawMessage{
			rawRecord("Jane Doe", "jane@example.com", ""),
			rawRecord("", "bad@example.com", ""),
			rawRecord("John Roe", "", "+15550100"),
		}

		result, err := s.svc.BulkUpsert(s.ctx, items, parseStrict)
		s.Require().NoError(err)
		s.Require().Len(result.Success, 2)
		s.Require().Len(result.Failed, 1)

		s.Equal("jane@example.com", result.Success[0].Email)
		s.Equal("+15550100", result.Success[1].Phone)
		s.Equal(1, result.Failed[0].Index)
		s.JSONEq(string(items[1]), string(result.Failed[0].Record))

		reason, ok := result.Failed[0].Reason.(map[string][]string)
		s.Require().True(ok)
		s.Contains(reason["full_name"], "This field is required.")
	})

	s.Run("earlier commits survive a later failure", func() {
		// Fresh service: this subtest asserts on the store's full contents.
		svc := newTestService(store.NewInMemory())
		items := []json.RawMessage{
			rawRecord("Kept", "kept@example.com", ""),
			rawRecord("", "", ""),
		}

		result, err := svc.BulkUpsert(s.ctx, items, parseStrict)
		s.Require().NoError(err)
		s.Len(result.Success, 1)
		s.Len(result.Failed, 1)

		records, err := svc.List(s.ctx, "")
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal("kept@example.com", records[0].Email)
	})

	s.Run("conflicting item fails without aborting the batch", func() {
		_, _, err := s.svc.Upsert(s.ctx, models.Candidate{
			FullName: "Owner", Email: "owner2@example.com", Phone: "+15550177", Source: models.SourceDirect,
		})
		s.Require().NoError(err)

		items := []json.RawMessage{
			rawRecord("Intruder", "intruder@example.com", "+15550177"),
			rawRecord("Fine", "fine@example.com", ""),
		}

		result, err := s.svc.BulkUpsert(s.ctx, items, parseStrict)
		s.Require().NoError(err)
		s.Require().Len(result.Failed, 1)
		s.Equal(0, result.Failed[0].Index)
		reason, ok := result.Failed[0].Reason.(string)
		s.Require().True(ok)
		s.Contains(reason, "already exists")
		s.Len(result.Success, 1)
	})

	s.Run("empty batch yields empty result", func() {
		result, err := s.svc.BulkUpsert(s.ctx, nil, parseStrict)
		s.Require().NoError(err)
		s.NotNil(result.Success)
		s.NotNil(result.Failed)
		s.Empty(result.Success)
		s.Empty(result.Failed)
	})

	s.Run("same key twice in one batch updates in place", func() {
		items := []json.RawMessage{
			rawRecord("First Pass", "dup@example.com", ""),
			rawRecord("Second Pass", "dup@example.com", ""),
		}

		result, err := s.svc.BulkUpsert(s.ctx, items, parseStrict)
		s.Require().NoError(err)
		s.Require().Len(result.Success, 2)
		s.Equal(result.Success[0].ID, result.Success[1].ID)
		s.Equal("Second Pass", result.Success[1].FullName)
	})
}

// failingStore returns a non-conflict error on the Nth upsert.
type failingStore struct {
	inner   *store.InMemory
	calls   int
	failOn  int
	failErr error
}

func (f *failingStore) Upsert(ctx context.Context, key models.MatchKey, value string, c models.Candidate) (*models.Professional, bool, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, false, f.failErr
	}
	return f.inner.Upsert(ctx, key, value, c)
}

func (f *failingStore) List(ctx context.Context, source models.Source) ([]*models.Professional, error) {
	return f.inner.List(ctx, source)
}

// TestBulkUpsertAbort verifies catastrophic store failures abort the batch.
func (s *ServiceSuite) TestBulkUpsertAbort() {
	fs := &failingStore{
		inner:   store.NewInMemory(),
		failOn:  2,
		failErr: fmt.Errorf("connection reset"),
	}
	svc := newTestService(fs)

	items := []json.RawMessage{
		rawRecord("First", "first@example.com", ""),
		rawRecord("Second", "second@example.com", ""),
	}

	_, err := svc.BulkUpsert(s.ctx, items, parseStrict)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

// TestBulkUpsertConflictIsNotCatastrophic pins the distinction between a
// per-item conflict and an abort.
func (s *ServiceSuite) TestBulkUpsertConflictIsNotCatastrophic() {
	fs := &failingStore{
		inner:   store.NewInMemory(),
		failOn:  1,
		failErr: fmt.Errorf("professional with this email already exists: %w", sentinel.ErrConflict),
	}
	svc := newTestService(fs)

	result, err := svc.BulkUpsert(s.ctx, []json.RawMessage{
		rawRecord("Only", "only@example.com", ""),
	}, parseStrict)
	s.Require().NoError(err)
	s.Len(result.Failed, 1)
	s.True(errors.Is(fs.failErr, sentinel.ErrConflict))
}
