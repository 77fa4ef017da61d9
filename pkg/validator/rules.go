package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Number is the set of types accepted by the numeric rules.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Rule is a single check bound to a field value.
// Check returns true when the value is valid.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and returns ValidationErrors for the failing ones, or nil.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if r.Check == nil || r.Check() {
			continue
		}
		errs = append(errs, r.Error)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func newRule(field, message, key string, values map[string]any, check func() bool) Rule {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return Rule{
		Check: check,
		Error: ValidationError{
			Field:             field,
			Message:           message,
			TranslationKey:    key,
			TranslationValues: values,
		},
	}
}

func RequiredString(field, value string) Rule {
	return newRule(field, "This field is required.", "validation.required", nil, func() bool {
		return strings.TrimSpace(value) != ""
	})
}

func RequiredNum[T Number](field string, value T) Rule {
	return newRule(field, "This field is required.", "validation.required", nil, func() bool {
		return value != 0
	})
}

func RequiredSlice[T any](field string, value []T) Rule {
	return newRule(field, "This field is required.", "validation.required", nil, func() bool {
		return len(value) > 0
	})
}

func RequiredMap[K comparable, V any](field string, value map[K]V) Rule {
	return newRule(field, "This field is required.", "validation.required", nil, func() bool {
		return len(value) > 0
	})
}

func MinLenString(field, value string, min int) Rule {
	return newRule(field,
		fmt.Sprintf("This field must be at least %d characters long.", min),
		"validation.min_length", map[string]any{"min": min},
		func() bool { return utf8.RuneCountInString(value) >= min })
}

func MaxLenString(field, value string, max int) Rule {
	return newRule(field,
		fmt.Sprintf("This field must not exceed %d characters.", max),
		"validation.max_length", map[string]any{"max": max},
		func() bool { return utf8.RuneCountInString(value) <= max })
}

func LenString(field, value string, length int) Rule {
	return newRule(field,
		fmt.Sprintf("This field must be exactly %d characters long.", length),
		"validation.exact_length", map[string]any{"length": length},
		func() bool { return utf8.RuneCountInString(value) == length })
}

func MinLenSlice[T any](field string, value []T, min int) Rule {
	return newRule(field,
		fmt.Sprintf("This field must contain at least %d items.", min),
		"validation.min_items", map[string]any{"min": min},
		func() bool { return len(value) >= min })
}

func MaxLenSlice[T any](field string, value []T, max int) Rule {
	return newRule(field,
		fmt.Sprintf("This field must not contain more than %d items.", max),
		"validation.max_items", map[string]any{"max": max},
		func() bool { return len(value) <= max })
}

func MinNum[T Number](field string, value, min T) Rule {
	return newRule(field,
		fmt.Sprintf("This field must be at least %v.", min),
		"validation.min", map[string]any{"min": min},
		func() bool { return value >= min })
}

func MaxNum[T Number](field string, value, max T) Rule {
	return newRule(field,
		fmt.Sprintf("This field must not exceed %v.", max),
		"validation.max", map[string]any{"max": max},
		func() bool { return value <= max })
}

// Alpha accepts a non-empty string of letters.
func Alpha(field, value string) Rule {
	return newRule(field, "This field must contain only alphabetic characters.", "validation.alpha", nil, func() bool {
		return value != "" && strings.IndexFunc(value, func(r rune) bool { return !unicode.IsLetter(r) }) < 0
	})
}

// AlphaNum accepts a non-empty string of letters and digits.
func AlphaNum(field, value string) Rule {
	return newRule(field, "This field must contain only alphanumeric characters.", "validation.alpha_num", nil, func() bool {
		return value != "" && strings.IndexFunc(value, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) < 0
	})
}

// Numeric accepts anything that parses as a decimal number.
func Numeric(field, value string) Rule {
	return newRule(field, "This field must contain only numeric characters.", "validation.numeric", nil, func() bool {
		_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return err == nil
	})
}

// Email accepts a bare address such as "user@example.com".
func Email(field, value string) Rule {
	return newRule(field, "This field must contain a valid email.", "validation.email", nil, func() bool {
		addr, err := mail.ParseAddress(value)
		return err == nil && addr.Address == value
	})
}

// In accepts one of the allowed values.
func In(field, value string, allowed ...string) Rule {
	return newRule(field,
		fmt.Sprintf("This field must be one of: %s.", strings.Join(allowed, ", ")),
		"validation.in", map[string]any{"values": strings.Join(allowed, ", ")},
		func() bool { return slices.Contains(allowed, value) })
}
