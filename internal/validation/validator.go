package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/blog-api/internal/models"
)

// NonFieldErrors is the key for errors that concern the input as a whole
const NonFieldErrors = "non_field_errors"

// Standard messages, shaped like the ones API clients already parse
const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
	MsgEmail    = "Enter a valid email address."
	MsgUsername = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

// ValidationError collects messages per input field
type ValidationError struct {
	Fields map[string][]string
}

// New returns an empty ValidationError
func New() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Field builds a ValidationError holding a single message
func Field(field, message string) *ValidationError {
	e := New()
	e.Add(field, message)
	return e
}

// Add appends message to field
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field already carries an error
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Empty reports whether nothing was recorded
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when empty
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Required records a blank error when value is empty after trimming
func (e *ValidationError) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, MsgBlank)
		return false
	}
	return true
}

// MaxLength records an error when value has more than max characters
func (e *ValidationError) MaxLength(field, value string, max int) bool {
	if utf8.RuneCountInString(value) > max {
		e.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
		return false
	}
	return true
}

// Username checks required, length and the allowed character set
func (e *ValidationError) Username(value string) {
	if !e.Required("username", value) {
		return
	}
	e.MaxLength("username", value, 150)
	if !usernameRegex.MatchString(value) {
		e.Add("username", MsgUsername)
	}
}

// Email checks required, length and format
func (e *ValidationError) Email(value string) {
	if !e.Required("email", value) {
		return
	}
	e.MaxLength("email", value, 254)
	if !emailRegex.MatchString(value) {
		e.Add("email", MsgEmail)
	}
}

// Choice records an error when value is not one of the accepted choices
func (e *ValidationError) Choice(field, value string, choices ...string) {
	for _, c := range choices {
		if value == c {
			return
		}
	}
	e.Add(field, fmt.Sprintf("%q is not a valid choice.", value))
}

// PostStatus validates a status value supplied for a post
func (e *ValidationError) PostStatus(value string) {
	e.Choice("status", value, string(models.StatusDraft), string(models.StatusPublished))
}
