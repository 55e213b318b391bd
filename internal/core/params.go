package core

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
)

// Parameter labels as they appear in the parameter sheet.
const (
	ParamYear                = "Année"
	ParamSupervisor          = "Nom du superviseur"
	ParamSignatureDate       = "Date à indiquer dans la feuille de temps"
	ParamAcronym             = "Project acronym"
	ParamProjectNumber       = "Project number"
	ParamCallIdentifier      = "Call identifier"
	ParamParticipantName     = "Participant Name"
	ParamSupervisorSignature = "Signature du superviseur"
)

type (
	// ParameterSet is the key/value table read once at start-up.
	ParameterSet struct {
		values map[string]any
	}

	// RunParameters are the typed parameters a run needs.
	RunParameters struct {
		Year            string    `param:"Année" validate:"required"`
		Supervisor      string    `param:"Nom du superviseur"`
		SignatureDate   time.Time `param:"Date à indiquer dans la feuille de temps" validate:"required"`
		Acronym         string    `param:"Project acronym" validate:"required"`
		ProjectNumber   string    `param:"Project number"`
		CallIdentifier  string    `param:"Call identifier"`
		ParticipantName string    `param:"Participant Name"`
		// SupervisorSignatureURL is optional; empty leaves the image cell blank.
		SupervisorSignatureURL string `param:"Signature du superviseur" validate:"omitempty,url"`
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("param"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// NewParameterSet builds a set from two-column rows. Later rows override
// earlier ones with the same key; rows without a key are skipped.
func NewParameterSet(rows [][]any) *ParameterSet {
	p := &ParameterSet{values: make(map[string]any, len(rows))}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := CellString(row[0])
		if key == "" {
			continue
		}
		var value any
		if len(row) > 1 {
			value = row[1]
		}
		p.values[key] = value
	}
	return p
}

// Get returns the raw value for key.
func (p *ParameterSet) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// String returns the value for key as trimmed text, "" when missing.
func (p *ParameterSet) String(key string) string {
	return CellString(p.values[key])
}

// Date returns the value for key as a date.
func (p *ParameterSet) Date(key string) (time.Time, error) {
	v, ok := p.values[key]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: parameter %q", ErrColumnMissing, key)
	}
	return ParseDate(v)
}

// Run extracts and validates the parameters of a run. Every problem is
// reported in a single *ConfigError.
func (p *ParameterSet) Run() (RunParameters, error) {
	rp := RunParameters{
		Year:                   p.String(ParamYear),
		Supervisor:             p.String(ParamSupervisor),
		Acronym:                p.String(ParamAcronym),
		ProjectNumber:          p.String(ParamProjectNumber),
		CallIdentifier:         p.String(ParamCallIdentifier),
		ParticipantName:        p.String(ParamParticipantName),
		SupervisorSignatureURL: p.String(ParamSupervisorSignature),
	}

	var problems []string
	if raw, _ := p.Get(ParamSignatureDate); !IsBlank(raw) {
		d, err := ParseDate(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%q: %v", ParamSignatureDate, err))
		} else {
			rp.SignatureDate = d
		}
	}

	if err := validate.Struct(rp); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return RunParameters{}, fmt.Errorf("validate parameters: %w", err)
		}
		for _, fe := range verrs {
			if fe.Field() == ParamSignatureDate && len(problems) > 0 {
				continue
			}
			problems = append(problems, fmt.Sprintf("%q: failed %q", fe.Field(), fe.Tag()))
		}
	}

	if len(problems) > 0 {
		return RunParameters{}, &ConfigError{Problems: problems}
	}
	return rp, nil
}

// SignatureDateText renders the signature date the way it is printed on
// the timesheets.
func (rp RunParameters) SignatureDateText() string {
	return FormatDate(rp.SignatureDate)
}
