package registerform

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the wire format of FormValues.DateOfBirth.
const DateLayout = "2006-01-02"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Error messages shown next to the inputs.
const (
	MsgFirstnameRequired = "Etunimi vaaditaan"
	MsgLastnameRequired  = "Sukunimi vaaditaan"
	MsgEmailRequired     = "Sähköposti vaaditaan"
	MsgEmailInvalid      = "Virheellinen sähköposti"
	MsgDateRequired      = "Syntymäpäivä vaaditaan"
	MsgDateInvalid       = "Virheellinen päivämäärä"
	MsgDateNotPast       = "Syntymäpäivän tulee olla menneisyydessä"
	MsgPasswordRequired  = "Salasana vaaditaan"
)

// Schema validates FormValues. A Schema has no mutable state; the same
// values always produce the same errors for a given clock reading.
type Schema struct {
	policy *PasswordPolicy
	now    func() time.Time
}

// SchemaOption configures a Schema
type SchemaOption func(*Schema)

// WithPasswordPolicy replaces the default password policy
func WithPasswordPolicy(p *PasswordPolicy) SchemaOption {
	return func(s *Schema) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithClock sets the clock used to decide whether a date lies in the past
func WithClock(now func() time.Time) SchemaOption {
	return func(s *Schema) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSchema creates a Schema with the given options
func NewSchema(opts ...SchemaOption) *Schema {
	s := &Schema{
		policy: DefaultPasswordPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PasswordPolicy returns the policy the schema enforces
func (s *Schema) PasswordPolicy() *PasswordPolicy {
	return s.policy
}

// Validate checks every field and returns the errors found. The result is
// empty, never nil, when all fields are valid.
func (s *Schema) Validate(v FormValues) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(v.Firstname) == "" {
		errs[FieldFirstname] = MsgFirstnameRequired
	}
	if strings.TrimSpace(v.Lastname) == "" {
		errs[FieldLastname] = MsgLastnameRequired
	}

	switch email := strings.TrimSpace(v.Email); {
	case email == "":
		errs[FieldEmail] = MsgEmailRequired
	case !emailRegex.MatchString(email):
		errs[FieldEmail] = MsgEmailInvalid
	}

	if msg := s.validateDate(v.DateOfBirth); msg != "" {
		errs[FieldDateOfBirth] = msg
	}

	if v.Password == "" {
		errs[FieldPassword] = MsgPasswordRequired
	} else if msg := s.policy.Check(v.Password); msg != "" {
		errs[FieldPassword] = msg
	}

	return errs
}

func (s *Schema) validateDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return MsgDateRequired
	}
	dob, err := time.Parse(DateLayout, value)
	if err != nil {
		return MsgDateInvalid
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !dob.Before(today) {
		return MsgDateNotPast
	}
	return ""
}

var defaultSchema = NewSchema()

// Validate checks v against the default schema.
func Validate(v FormValues) FieldErrors {
	return defaultSchema.Validate(v)
}
