package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	alphaDash  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// ── Errors ───────────────────────────────────────────────────────────────────

// Errors collects failure messages per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failing fields, sorted.
func (e *Errors) Fields() []string {
	out := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Error joins the first message of every failing field.
func (e *Errors) Error() string {
	msgs := make([]string, 0, len(e.Bag))
	for _, f := range e.Fields() {
		msgs = append(msgs, e.First(f))
	}
	return strings.Join(msgs, " ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules maps a field to a pipe-separated rule string.
//
//	Rules{"interface": "required|identifier|max:255", "unique_id": "alpha_dash|max:64"}
//
// Supported rules: required, min:n, max:n, alpha_dash, identifier,
// in:a,b,c, regex:pattern. Rules other than required pass on empty values.
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a Validator over data.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	if !v.ran {
		v.validate()
		v.ran = true
	}
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the error bag.
func (v *Validator) Errors() *Errors { return v.errors }

func (v *Validator) validate() {
	for field, ruleStr := range v.rules {
		value := v.data[field]

		for _, rule := range strings.Split(ruleStr, "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			name, param, _ := strings.Cut(rule, ":")

			// stop at the first failing rule of a field
			if !v.applyRule(field, value, name, param) {
				break
			}
		}
	}
}

// applyRule returns true if the rule passes.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	if rule == "required" {
		if strings.TrimSpace(value) == "" {
			v.errors.add(field, fmt.Sprintf("The %s field is required.", field))
			return false
		}
		return true
	}
	if value == "" {
		return true
	}

	switch rule {
	case "min":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			v.errors.add(field, fmt.Sprintf("The %s must be at least %d characters.", field, n))
			return false
		}

	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			v.errors.add(field, fmt.Sprintf("The %s may not be greater than %d characters.", field, n))
			return false
		}

	case "alpha_dash":
		if !alphaDash.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field))
			return false
		}

	case "identifier":
		if !identifier.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("The %s must be a dot-separated identifier.", field))
			return false
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if strings.TrimSpace(a) == value {
				return true
			}
		}
		v.errors.add(field, fmt.Sprintf("The selected %s is invalid.", field))
		return false

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("The %s format is invalid.", field))
			return false
		}
	}

	return true
}
