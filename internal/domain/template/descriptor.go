// Package template defines the template registry domain: discovered
// template/language pairs and their validation state.
package template

import "fmt"

// Descriptor identifies one discovered (template name, language) pair.
// Descriptors are computed on demand during list/resolve and not persisted.
type Descriptor struct {
	Name     string
	Language string
	// Path is the resolved template file location.
	Path string
}

// Filename returns the canonical file name for the descriptor.
func (d Descriptor) Filename() string {
	return fmt.Sprintf("%s_%s.html", d.Name, d.Language)
}

// ValidationResult reports whether a template parses and references only
// known placeholders. Unknown placeholders are errors, never silently
// substituted with blanks at render time.
type ValidationResult struct {
	Descriptor Descriptor
	Valid      bool
	Errors     []string
}

// AddError records a validation failure and marks the result invalid.
func (r *ValidationResult) AddError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// InstallResult reports what a default template installation did, by file name.
type InstallResult struct {
	Installed []string
	Skipped   []string
}
