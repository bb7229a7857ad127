package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"rolodex/internal/professional/models"
	dErrors "rolodex/pkg/domain-errors"
)

// nonFieldErrors is the key used for failures that belong to the record as
// a whole rather than to a single field.
const nonFieldErrors = "non_field_errors"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under json field names, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ProfessionalRequest is one candidate record as submitted by a caller.
// Empty strings on optional fields are treated as absent.
type ProfessionalRequest struct {
	FullName    string `json:"full_name" validate:"required,max=255"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	CompanyName string `json:"company_name" validate:"omitempty,max=255"`
	JobTitle    string `json:"job_title" validate:"omitempty,max=255"`
	Source      string `json:"source" validate:"required,oneof=direct partner internal"`
	Resume      string `json:"resume" validate:"omitempty,max=512"`
}

func (r *ProfessionalRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	r.Source = strings.TrimSpace(r.Source)
	r.Resume = strings.TrimSpace(r.Resume)
}

// Validate normalizes the request and checks every field rule, collecting
// all failures into one field -> reasons mapping. On success it returns the
// normalized candidate.
func (r *ProfessionalRequest) Validate() (models.Candidate, error) {
	r.normalize()

	fields := map[string][]string{}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.Candidate{}, dErrors.Wrap(err, dErrors.CodeInternal, "validator failure")
		}
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], messageFor(fe))
		}
	}

	// After normalization at least one contact key must remain.
	if r.Email == "" && r.Phone == "" {
		fields[nonFieldErrors] = append(fields[nonFieldErrors],
			"At least one of email or phone must be provided.")
	}

	if len(fields) > 0 {
		return models.Candidate{}, dErrors.WithFields(dErrors.CodeValidation, "invalid professional record", fields)
	}

	return models.Candidate{
		FullName:    r.FullName,
		Email:       r.Email,
		Phone:       r.Phone,
		CompanyName: r.CompanyName,
		JobTitle:    r.JobTitle,
		Source:      models.Source(r.Source),
		Resume:      r.Resume,
	}, nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Invalid source. Must be one of: %s.", strings.Join(models.SourceNames(), ", "))
	default:
		return "Invalid value."
	}
}

// ParseCandidate validates one raw JSON record into a normalized candidate.
// It satisfies service.ParseFunc for bulk upserts and backs the single
// upsert endpoint.
func ParseCandidate(raw json.RawMessage) (models.Candidate, error) {
	var req ProfessionalRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return models.Candidate{}, dErrors.WithFields(dErrors.CodeValidation,
				"invalid professional record",
				map[string][]string{typeErr.Field: {"Invalid value."}})
		}
		return models.Candidate{}, dErrors.WithFields(dErrors.CodeValidation,
			"invalid professional record",
			map[string][]string{nonFieldErrors: {"Record must be a JSON object."}})
	}
	return req.Validate()
}
