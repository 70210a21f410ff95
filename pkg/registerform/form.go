package registerform

import (
	"errors"
	"sync"

	apperrors "github.com/tendant/simple-register/pkg/errors"
)

// ErrValidationFailed is returned by Submit when any field has an error.
var ErrValidationFailed = errors.New("registration form has validation errors")

// Form holds the state of one mounted registration form: values, the errors
// for those values and the set of fields the user has left at least once.
type Form struct {
	mu      sync.RWMutex
	schema  *Schema
	values  FormValues
	errors  FieldErrors
	touched map[Field]bool
}

// NewForm creates an empty form validated by schema (the default schema when nil).
func NewForm(schema *Schema) *Form {
	if schema == nil {
		schema = defaultSchema
	}
	f := &Form{
		schema:  schema,
		touched: make(map[Field]bool, len(Fields)),
	}
	f.errors = schema.Validate(f.values)
	return f
}

// Change sets a field value and revalidates the form. Unknown fields are ignored.
func (f *Form) Change(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.values.set(field, value) {
		return
	}
	f.errors = f.schema.Validate(f.values)
}

// Blur marks a field as touched.
func (f *Form) Blur(field Field) {
	if !field.Valid() {
		return
	}
	f.mu.Lock()
	f.touched[field] = true
	f.mu.Unlock()
}

// FieldHasError reports whether an error should be shown for field: it must
// both fail validation and have been touched.
func (f *Form) FieldHasError(field Field) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errors.Has(field) && f.touched[field]
}

// FieldError returns the message shown for field, or "" when FieldHasError is false.
func (f *Form) FieldError(field Field) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.touched[field] {
		return ""
	}
	return f.errors[field]
}

// SetFieldError attaches an error that did not come from the schema, such as
// a duplicate email reported by the account provider. The next Change
// revalidates and drops it.
func (f *Form) SetFieldError(field Field, message string) {
	if !field.Valid() {
		return
	}
	f.mu.Lock()
	f.errors[field] = message
	f.mu.Unlock()
}

// Values returns a copy of the current values.
func (f *Form) Values() FormValues {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values
}

// Errors returns a copy of all current errors, touched or not.
func (f *Form) Errors() FieldErrors {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errors.Clone()
}

// VisibleErrors returns the errors of touched fields only.
func (f *Form) VisibleErrors() FieldErrors {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := FieldErrors{}
	for field, msg := range f.errors {
		if f.touched[field] {
			out[field] = msg
		}
	}
	return out
}

// Touched returns the touched fields in display order.
func (f *Form) Touched() []Field {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Field, 0, len(f.touched))
	for _, field := range Fields {
		if f.touched[field] {
			out = append(out, field)
		}
	}
	return out
}

// Submit touches every field, so all errors become visible, and returns the
// values when the form is valid. On failure the error wraps
// ErrValidationFailed and carries the field messages as details.
func (f *Form) Submit() (FormValues, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, field := range Fields {
		f.touched[field] = true
	}
	f.errors = f.schema.Validate(f.values)
	if !f.errors.Empty() {
		return f.values, ValidationError(f.errors)
	}
	return f.values, nil
}

// ValidationError builds the error returned for invalid values.
func ValidationError(errs FieldErrors) error {
	return apperrors.Wrap(ErrValidationFailed, apperrors.ErrCodeValidationFailed, "validation failed").
		WithDetail("fields", errs.ToMap())
}
