package validator

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// RuleSet maps a field name to a pipe-separated rule string,
// e.g. "required|alpha_num|max:32".
type RuleSet map[string]string

// Validator checks input data against a RuleSet.
type Validator struct {
	data   map[string]any
	rules  RuleSet
	errors ValidationErrors
	done   bool
}

// New creates a validator over data. Nothing runs until Validate, Fails or Errors is called.
func New(data map[string]any, rules RuleSet) *Validator {
	if data == nil {
		data = map[string]any{}
	}
	return &Validator{data: data, rules: rules}
}

// Validate runs the rules once and returns the failures as an error, or nil.
func (v *Validator) Validate() error {
	if !v.done {
		v.errors = v.run()
		v.done = true
	}
	if len(v.errors) == 0 {
		return nil
	}
	return v.errors
}

// Fails reports whether any field failed.
func (v *Validator) Fails() bool {
	return v.Validate() != nil
}

// Errors returns the failed rules.
func (v *Validator) Errors() ValidationErrors {
	_ = v.Validate()
	return v.errors
}

func (v *Validator) run() ValidationErrors {
	fields := make([]string, 0, len(v.rules))
	for field := range v.rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var rules []Rule
	for _, field := range fields {
		rules = append(rules, compile(field, v.data[field], v.rules[field])...)
	}
	return ExtractValidationErrors(Apply(rules...))
}

// compile turns a rule string into rules bound to value.
// Only "required" runs against an empty value; the rest are skipped for it.
// Unknown rule names are ignored.
func compile(field string, value any, ruleString string) []Rule {
	var rules []Rule
	empty := isEmpty(value)
	str := cast.ToString(value)

	for _, part := range strings.Split(ruleString, "|") {
		name, arg, _ := strings.Cut(strings.TrimSpace(part), ":")
		if name == "required" {
			rules = append(rules, newRule(field, "This field is required.", "validation.required", nil, func() bool {
				return !empty
			}))
			continue
		}
		if empty {
			continue
		}

		switch name {
		case "string":
			rules = append(rules, newRule(field, "This field must be a string.", "validation.string", nil, func() bool {
				_, ok := value.(string)
				return ok
			}))
		case "alpha":
			rules = append(rules, Alpha(field, str))
		case "alpha_num":
			rules = append(rules, AlphaNum(field, str))
		case "numeric":
			rules = append(rules, Numeric(field, str))
		case "email":
			rules = append(rules, Email(field, str))
		case "in":
			rules = append(rules, In(field, str, strings.Split(arg, ",")...))
		case "min", "max":
			n, err := strconv.Atoi(arg)
			if err != nil {
				continue
			}
			rules = append(rules, sizeRule(name, field, value, str, n))
		}
	}
	return rules
}

func sizeRule(name, field string, value any, str string, n int) Rule {
	if isNumber(value) {
		f := cast.ToFloat64(value)
		if name == "min" {
			return MinNum(field, f, float64(n))
		}
		return MaxNum(field, f, float64(n))
	}
	if list, ok := value.([]string); ok {
		if name == "min" {
			return MinLenSlice(field, list, n)
		}
		return MaxLenSlice(field, list, n)
	}
	if name == "min" {
		return MinLenString(field, str, n)
	}
	return MaxLenString(field, str, n)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
