package validator

import (
	"errors"
	"sort"
	"strings"
)

// ValidationError describes a single failed rule.
// Message holds the default English text; TranslationKey and TranslationValues
// let callers replace it with a localized message.
type ValidationError struct {
	TranslationValues map[string]any `json:"-"`
	Field             string         `json:"field"`
	Message           string         `json:"message"`
	TranslationKey    string         `json:"-"`
}

// ValidationErrors is the list of failed rules, in the order they were checked.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ve := range e {
		parts = append(parts, ve.Field+": "+ve.Message)
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field has at least one error.
func (e ValidationErrors) Has(field string) bool {
	for _, ve := range e {
		if ve.Field == field {
			return true
		}
	}
	return false
}

// Get returns the messages for field.
func (e ValidationErrors) Get(field string) []string {
	var msgs []string
	for _, ve := range e {
		if ve.Field == field {
			msgs = append(msgs, ve.Message)
		}
	}
	return msgs
}

// GetErrors returns the full error entries for field.
func (e ValidationErrors) GetErrors(field string) []ValidationError {
	var out []ValidationError
	for _, ve := range e {
		if ve.Field == field {
			out = append(out, ve)
		}
	}
	return out
}

// Fields returns the failed field names, sorted.
func (e ValidationErrors) Fields() []string {
	seen := make(map[string]struct{}, len(e))
	fields := make([]string, 0, len(e))
	for _, ve := range e {
		if _, ok := seen[ve.Field]; ok {
			continue
		}
		seen[ve.Field] = struct{}{}
		fields = append(fields, ve.Field)
	}
	sort.Strings(fields)
	return fields
}

// Bag groups messages by field.
func (e ValidationErrors) Bag() map[string][]string {
	bag := make(map[string][]string, len(e))
	for _, ve := range e {
		bag[ve.Field] = append(bag[ve.Field], ve.Message)
	}
	return bag
}

// Translate rewrites Message in place for every entry with a TranslationKey.
// A nil fn is a no-op.
func (e ValidationErrors) Translate(fn func(key string, values map[string]any) string) {
	if fn == nil {
		return
	}
	for i := range e {
		if e[i].TranslationKey == "" {
			continue
		}
		e[i].Message = fn(e[i].TranslationKey, e[i].TranslationValues)
	}
}

// IsValidationError reports whether err is or wraps ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// ExtractValidationErrors returns the ValidationErrors inside err, or nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
