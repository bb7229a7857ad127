package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rolodex/internal/professional/models"
	"rolodex/pkg/platform/sentinel"
	txcontext "rolodex/pkg/platform/tx"
	"rolodex/pkg/requestcontext"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// Postgres persists professional records in PostgreSQL via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate applies the schema. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply professionals schema: %w", err)
	}
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q returns the batch transaction from context when one is open, else the pool.
func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

// Upsert performs a single atomic find-or-create keyed on the given column.
// When called inside a batch transaction it runs under a savepoint (nested
// pgx transaction), so a unique violation on one row cannot abort the
// enclosing transaction.
func (s *Postgres) Upsert(ctx context.Context, key models.MatchKey, value string, c models.Candidate) (*models.Professional, bool, error) {
	if value == "" {
		return nil, false, fmt.Errorf("upsert: empty %s match key", key)
	}
	switch key {
	case models.MatchKeyEmail, models.MatchKeyPhone:
	default:
		return nil, false, fmt.Errorf("upsert: unknown match key %q", key)
	}

	if outer, ok := txcontext.From(ctx); ok {
		sp, err := outer.Begin(ctx) // SAVEPOINT
		if err != nil {
			return nil, false, fmt.Errorf("begin savepoint: %w", err)
		}
		rec, created, err := s.upsert(ctx, sp, key, c)
		if err != nil {
			_ = sp.Rollback(ctx)
			return nil, false, err
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("release savepoint: %w", err)
		}
		return rec, created, nil
	}
	return s.upsert(ctx, s.pool, key, c)
}

func (s *Postgres) upsert(ctx context.Context, q querier, key models.MatchKey, c models.Candidate) (*models.Professional, bool, error) {
	now := requestcontext.Now(ctx)

	// ON CONFLICT targets only the match-key column; a collision on the
	// other unique column raises 23505 and is reported, not retried.
	query := fmt.Sprintf(`
		INSERT INTO professionals
			(id, full_name, email, phone, company_name, job_title, source, resume, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (%s) DO UPDATE SET
			full_name    = EXCLUDED.full_name,
			email        = EXCLUDED.email,
			phone        = EXCLUDED.phone,
			company_name = EXCLUDED.company_name,
			job_title    = EXCLUDED.job_title,
			source       = EXCLUDED.source,
			resume       = EXCLUDED.resume,
			updated_at   = EXCLUDED.updated_at
		RETURNING id, full_name, email, phone, company_name, job_title, source, resume,
			created_at, updated_at, (xmax = 0) AS inserted`, key)

	row := q.QueryRow(ctx, query,
		uuid.New(), c.FullName,
		nullable(c.Email), nullable(c.Phone), nullable(c.CompanyName),
		nullable(c.JobTitle), string(c.Source), nullable(c.Resume), now)

	rec, created, err := scanProfessional(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			field := "contact key"
			if strings.Contains(pgErr.ConstraintName, "email") {
				field = "email"
			} else if strings.Contains(pgErr.ConstraintName, "phone") {
				field = "phone"
			}
			return nil, false, fmt.Errorf("professional with this %s already exists: %w", field, sentinel.ErrConflict)
		}
		return nil, false, fmt.Errorf("upsert professional: %w", err)
	}
	return rec, created, nil
}

// Count returns the total number of stored records.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q(ctx).QueryRow(ctx, `SELECT count(*) FROM professionals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count professionals: %w", err)
	}
	return n, nil
}

// List returns records newest-first, optionally filtered by source.
func (s *Postgres) List(ctx context.Context, source models.Source) ([]*models.Professional, error) {
	query := `
		SELECT id, full_name, email, phone, company_name, job_title, source, resume,
			created_at, updated_at, false
		FROM professionals`
	args := []any{}
	if source != "" {
		query += ` WHERE source = $1`
		args = append(args, string(source))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Professional, 0)
	for rows.Next() {
		rec, _, err := scanProfessional(rows)
		if err != nil {
			return nil, fmt.Errorf("scan professional: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	return out, nil
}

func scanProfessional(row pgx.Row) (*models.Professional, bool, error) {
	var (
		rec      models.Professional
		email    *string
		phone    *string
		company  *string
		jobTitle *string
		resume   *string
		source   string
		inserted bool
	)
	err := row.Scan(&rec.ID, &rec.FullName, &email, &phone, &company, &jobTitle,
		&source, &resume, &rec.CreatedAt, &rec.UpdatedAt, &inserted)
	if err != nil {
		return nil, false, err
	}
	rec.Email = deref(email)
	rec.Phone = deref(phone)
	rec.CompanyName = deref(company)
	rec.JobTitle = deref(jobTitle)
	rec.Resume = deref(resume)
	rec.Source = models.Source(source)
	return &rec, inserted, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
