package adapthttp

import (
	"perritofeliz/internal/validate"
)

// FormState is what a view needs to re-render a form: the submitted values,
// which fields the user has touched and the message for each invalid field.
type FormState struct {
	Values  map[string]string
	Touched map[string]bool
	Errors  validate.Errors
}

// Value returns the submitted value of a field.
func (f FormState) Value(name string) string { return f.Values[name] }

// Error returns the message of a field, but only once the field was touched.
func (f FormState) Error(name string) string {
	if !f.Touched[name] {
		return ""
	}
	return f.Errors[name]
}

// Selected reports whether value is the submitted value of a select field.
func (f FormState) Selected(name, value string) bool { return f.Values[name] == value }

// HasErrors reports whether any touched field is invalid.
func (f FormState) HasErrors() bool {
	for name := range f.Errors {
		if f.Touched[name] {
			return true
		}
	}
	return false
}

// withErrors attaches errs and marks their fields touched.
func (f FormState) withErrors(errs validate.Errors) FormState {
	if f.Touched == nil {
		f.Touched = map[string]bool{}
	}
	for name := range errs {
		f.Touched[name] = true
	}
	f.Errors = errs
	return f
}
