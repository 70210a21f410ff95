package registerform

import "sort"

// Field names one input of the registration form. The set is closed: only the
// constants below are valid, and ParseField is the only way in from a string.
type Field string

const (
	FieldFirstname   Field = "firstname"
	FieldLastname    Field = "lastname"
	FieldEmail       Field = "email"
	FieldDateOfBirth Field = "date_of_birth"
	FieldPassword    Field = "password"
)

// Fields lists every form field in display order.
var Fields = []Field{
	FieldFirstname,
	FieldLastname,
	FieldEmail,
	FieldDateOfBirth,
	FieldPassword,
}

// ParseField maps a form input name to its Field.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	_, ok := ParseField(string(f))
	return ok
}

// FormValues holds the raw input of the registration form. DateOfBirth is an
// ISO date (2006-01-02) as produced by a date input.
type FormValues struct {
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"`
	Password    string `json:"-"`
}

// Get returns the value of a field.
func (v FormValues) Get(f Field) string {
	switch f {
	case FieldFirstname:
		return v.Firstname
	case FieldLastname:
		return v.Lastname
	case FieldEmail:
		return v.Email
	case FieldDateOfBirth:
		return v.DateOfBirth
	case FieldPassword:
		return v.Password
	}
	return ""
}

// set updates a field and reports whether the field was known.
func (v *FormValues) set(f Field, value string) bool {
	switch f {
	case FieldFirstname:
		v.Firstname = value
	case FieldLastname:
		v.Lastname = value
	case FieldEmail:
		v.Email = value
	case FieldDateOfBirth:
		v.DateOfBirth = value
	case FieldPassword:
		v.Password = value
	default:
		return false
	}
	return true
}

// FieldErrors maps fields to a human readable error message.
type FieldErrors map[Field]string

// Has reports whether f has an error.
func (e FieldErrors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// Empty reports whether there are no errors at all.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Clone returns an independent copy.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ToMap converts the errors to a string-keyed map for JSON and error details.
func (e FieldErrors) ToMap() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[string(k)] = v
	}
	return out
}

// SortedFields returns the fields with errors in display order.
func (e FieldErrors) SortedFields() []Field {
	out := make([]Field, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return fieldIndex(out[i]) < fieldIndex(out[j]) })
	return out
}

func fieldIndex(f Field) int {
	for i, known := range Fields {
		if known == f {
			return i
		}
	}
	return len(Fields)
}
