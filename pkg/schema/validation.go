package schema

import "fmt"

// Severity tells whether an issue blocks the node from building tools.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a node configuration.
type Issue struct {
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// CheckResult collects the issues of a configuration check.
type CheckResult struct {
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// OK reports whether no blocking issue was found.
func (r *CheckResult) OK() bool {
	return len(r.Errors) == 0
}

// AddError records a blocking issue.
func (r *CheckResult) AddError(field, code, message string) {
	r.Errors = append(r.Errors, Issue{Field: field, Code: code, Message: message, Severity: SeverityError})
}

// AddWarning records a non-blocking issue.
func (r *CheckResult) AddWarning(field, code, message string) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Code: code, Message: message, Severity: SeverityWarning})
}

// ToError returns nil when OK, otherwise a VALIDATION_ERROR listing the issues.
// A single error keeps its field.
func (r *CheckResult) ToError() error {
	if r.OK() {
		return nil
	}

	if len(r.Errors) == 1 {
		e := r.Errors[0]
		return NewError(ErrCodeValidation, e.Message).WithField(e.Field).
			WithDetails(map[string]any{"warnings": r.Warnings})
	}
	return NewErrorf(ErrCodeValidation, "node check failed with %d errors", len(r.Errors)).
		WithDetails(map[string]any{
			"errors":   r.Errors,
			"warnings": r.Warnings,
		})
}

// String summarizes the result on one line.
func (r *CheckResult) String() string {
	return fmt.Sprintf("%d error(s), %d warning(s)", len(r.Errors), len(r.Warnings))
}
