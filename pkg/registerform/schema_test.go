package registerform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func validValues() FormValues {
	return FormValues{
		Firstname:   "Anna",
		Lastname:    "Korhonen",
		Email:       "anna@example.fi",
		DateOfBirth: "1990-05-01",
		Password:    "Salainen1",
	}
}

func TestValidate_ValidValues(t *testing.T) {
	s := NewSchema(WithClock(fixedClock))
	errs := s.Validate(validValues())
	assert.True(t, errs.Empty(), "unexpected errors: %v", errs)
}

func TestValidate_EmptyRequiredFields(t *testing.T) {
	s := NewSchema(WithClock(fixedClock))

	tests := []struct {
		field Field
		want  string
	}{
		{FieldFirstname, MsgFirstnameRequired},
		{FieldLastname, MsgLastnameRequired},
		{FieldEmail, MsgEmailRequired},
		{FieldDateOfBirth, MsgDateRequired},
		{FieldPassword, MsgPasswordRequired},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			v := validValues()
			v.set(tt.field, "")
			errs := s.Validate(v)
			assert.False(t, errs.Empty())
			assert.Equal(t, tt.want, errs[tt.field])
			assert.Len(t, errs, 1)
		})
	}
}

func TestValidate_WhitespaceNameIsEmpty(t *testing.T) {
	v := validValues()
	v.Firstname = "   "
	errs := NewSchema(WithClock(fixedClock)).Validate(v)
	assert.Equal(t, MsgFirstnameRequired, errs[FieldFirstname])
}

func TestValidate_Email(t *testing.T) {
	s := NewSchema(WithClock(fixedClock))
	for _, email := range []string{"anna", "anna@", "anna@example", "@example.fi", "anna example@x.fi"} {
		v := validValues()
		v.Email = email
		assert.Equal(t, MsgEmailInvalid, s.Validate(v)[FieldEmail], email)
	}
}

func TestValidate_DateOfBirth(t *testing.T) {
	s := NewSchema(WithClock(fixedClock))

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"not a date", "01.05.1990", MsgDateInvalid},
		{"impossible date", "1990-02-30", MsgDateInvalid},
		{"today", "2024-06-15", MsgDateNotPast},
		{"future", "2030-01-01", MsgDateNotPast},
		{"yesterday", "2024-06-14", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validValues()
			v.DateOfBirth = tt.value
			assert.Equal(t, tt.want, s.Validate(v)[FieldDateOfBirth])
		})
	}
}

func TestValidate_PasswordPolicy(t *testing.T) {
	s := NewSchema(WithClock(fixedClock))

	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Salainen1", false},
		{"Sal1", true},
		{"salainen1", true},
		{"SALAINEN1", true},
		{"Salainenx", true},
		{"Salaaaaa1", true},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			v := validValues()
			v.Password = tt.password
			assert.Equal(t, tt.wantErr, s.Validate(v).Has(FieldPassword))
		})
	}
}

func TestValidate_CustomPolicy(t *testing.T) {
	s := NewSchema(WithClock(fixedClock), WithPasswordPolicy(&PasswordPolicy{MinLength: 4}))
	v := validValues()
	v.Password = "abcd"
	assert.False(t, s.Validate(v).Has(FieldPassword))
}

func TestValidate_Idempotent(t *testing.T) {
	s := NewSchema(WithClock(fixedClock))
	inputs := []FormValues{
		{},
		validValues(),
		{Firstname: "Anna", Email: "bad", DateOfBirth: "2999-01-01", Password: "x"},
	}
	for _, in := range inputs {
		assert.Equal(t, s.Validate(in), s.Validate(in))
	}
}

func TestParseField(t *testing.T) {
	f, ok := ParseField("date_of_birth")
	assert.True(t, ok)
	assert.Equal(t, FieldDateOfBirth, f)

	_, ok = ParseField("username")
	assert.False(t, ok)
	assert.False(t, Field("username").Valid())
}

func TestFieldErrors_SortedFields(t *testing.T) {
	errs := FieldErrors{FieldPassword: "x", FieldFirstname: "y", FieldEmail: "z"}
	assert.Equal(t, []Field{FieldFirstname, FieldEmail, FieldPassword}, errs.SortedFields())
}
