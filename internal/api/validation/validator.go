package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/osa911/contactform/internal/api/dto/v1/contact"
)

// Length limits for free-text fields
const (
	MaxNameLength    = 100
	MaxMessageLength = 2000
)

// Optional leading "+", no leading zero, at most 16 digits
var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

var (
	engine     *validator.Validate
	engineOnce sync.Once
)

// Engine returns the shared validator with custom tags registered
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New()
		RegisterValidators(engine)
	})
	return engine
}

// RegisterValidators registers custom validators
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("intlphone", validatePhone)
}

// validatePhone checks if the phone number looks international
func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// Errors maps a field name to its first error message
type Errors map[string]string

// Validator collects per-field errors. Each field keeps the first error
// recorded for it; later failures on the same field are ignored.
type Validator struct {
	validate *validator.Validate
	errors   Errors
}

// New creates an empty Validator
func New() *Validator {
	return &Validator{
		validate: Engine(),
		errors:   make(Errors),
	}
}

func (v *Validator) addError(field, message string) {
	if _, exists := v.errors[field]; exists {
		return
	}
	v.errors[field] = message
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Required fails when value is blank after trimming
func (v *Validator) Required(field, value, label string) bool {
	if !present(value) {
		v.addError(field, fmt.Sprintf("%s is required", label))
		return false
	}
	return true
}

// Email fails when value is not a valid address
func (v *Validator) Email(field, value string) bool {
	if err := v.validate.Var(value, "required,email"); err != nil {
		v.addError(field, "Please enter a valid email address")
		return false
	}
	return true
}

// Phone fails when a non-empty value is not a phone number
func (v *Validator) Phone(field, value string) bool {
	if value == "" {
		return true
	}
	if err := v.validate.Var(value, "intlphone"); err != nil {
		v.addError(field, "Please enter a valid phone number")
		return false
	}
	return true
}

// MaxLength fails when value has more than max characters
func (v *Validator) MaxLength(field, value string, max int, label string) bool {
	if utf8.RuneCountInString(value) > max {
		v.addError(field, fmt.Sprintf("%s must be less than %d characters", label, max))
		return false
	}
	return true
}

// HasErrors reports whether any rule failed
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns a copy of the collected errors
func (v *Validator) Errors() Errors {
	out := make(Errors, len(v.errors))
	for field, message := range v.errors {
		out[field] = message
	}
	return out
}

// ValidateSubmission applies the contact form rules in order and returns
// the collected errors, empty when the submission is acceptable.
func ValidateSubmission(sub contact.Submission) Errors {
	v := New()

	name := sub.String(contact.FieldName)
	email := sub.String(contact.FieldEmail)
	message := sub.String(contact.FieldMessage)

	v.Required(contact.FieldName, name, "Name")
	v.Required(contact.FieldEmail, email, "Email")
	v.Required(contact.FieldMessage, message, "Message")

	// Same presence rule as Required: "0" is a value and must be well formed.
	if present(email) {
		v.Email(contact.FieldEmail, email)
	}

	if phone := sub.String(contact.FieldPhone); present(phone) {
		v.Phone(contact.FieldPhone, phone)
	}

	v.MaxLength(contact.FieldName, name, MaxNameLength, "Name")
	v.MaxLength(contact.FieldMessage, message, MaxMessageLength, "Message")

	if !sub.Has(contact.FieldPrivacy) {
		v.Required(contact.FieldPrivacy, "", "Privacy policy agreement")
	}

	return v.Errors()
}
