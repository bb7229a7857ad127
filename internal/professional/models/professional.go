package models

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies where a professional record came from.
type Source string

const (
	SourceDirect   Source = "direct"
	SourcePartner  Source = "partner"
	SourceInternal Source = "internal"
)

// Valid reports whether s is one of the enumerated sources.
func (s Source) Valid() bool {
	switch s {
	case SourceDirect, SourcePartner, SourceInternal:
		return true
	}
	return false
}

// SourceNames lists the accepted source values, for error messages.
func SourceNames() []string {
	return []string{string(SourceDirect), string(SourcePartner), string(SourceInternal)}
}

// Professional is the sole persisted entity: a contact profile uniquely
// keyed by email or phone.
//
// Invariants:
//   - At least one of Email/Phone is set
//   - Email and Phone are each globally unique when set
//   - Source is one of the enumerated values
//   - CreatedAt is immutable after the first write; UpdatedAt >= CreatedAt
//
// Records are created on the first upsert that matches nothing, mutated in
// place by later upserts matching on email or phone, and never deleted.
type Professional struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	JobTitle    string    `json:"job_title,omitempty"`
	Source      Source    `json:"source"`
	Resume      string    `json:"resume,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Candidate is a validated, normalized record awaiting reconciliation.
// Optional fields use "" for absent. A Candidate carries the full field
// set: an upsert replaces every stored field with the candidate's value,
// it never merges.
type Candidate struct {
	FullName    string
	Email       string
	Phone       string
	CompanyName string
	JobTitle    string
	Source      Source
	Resume      string
}

// MatchKey is the field used to find an existing record for upsert.
type MatchKey string

const (
	MatchKeyEmail MatchKey = "email"
	MatchKeyPhone MatchKey = "phone"
)

// MatchKey selects the upsert key: email when present, phone otherwise.
// The returned value is "" when the candidate has no contact key at all;
// validation rejects such candidates before they reach a store.
func (c Candidate) MatchKey() (MatchKey, string) {
	if c.Email != "" {
		return MatchKeyEmail, c.Email
	}
	return MatchKeyPhone, c.Phone
}

// NewRecord materializes a candidate as a fresh record.
func (c Candidate) NewRecord(id uuid.UUID, now time.Time) *Professional {
	return &Professional{
		ID:          id,
		FullName:    c.FullName,
		Email:       c.Email,
		Phone:       c.Phone,
		CompanyName: c.CompanyName,
		JobTitle:    c.JobTitle,
		Source:      c.Source,
		Resume:      c.Resume,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyTo overwrites every candidate-carried field on an existing record,
// preserving identity and CreatedAt.
func (c Candidate) ApplyTo(p *Professional, now time.Time) {
	p.FullName = c.FullName
	p.Email = c.Email
	p.Phone = c.Phone
	p.CompanyName = c.CompanyName
	p.JobTitle = c.JobTitle
	p.Source = c.Source
	p.Resume = c.Resume
	p.UpdatedAt = now
}
