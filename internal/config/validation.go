package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// Err returns nil for a valid result, otherwise an error listing every
// validation error.
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	if len(vr.Errors) == 1 {
		return &vr.Errors[0]
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}

	return fmt.Errorf("%d validation errors: %s", len(vr.Errors), strings.Join(messages, "; "))
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateMinifyOptions checks option values that decoding cannot catch.
func ValidateMinifyOptions(options *MinifyOptions) *ValidationResult {
	result := &ValidationResult{}

	validatePatterns("patterns_css", options.PatternsCSS, result)
	validatePatterns("patterns_html", options.PatternsHTML, result)
	validatePatterns("patterns_js", options.PatternsJS, result)

	if options.CSS.Precision < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "css.precision",
			Value:       options.CSS.Precision,
			Message:     "precision cannot be negative",
			Suggestions: []string{"Use 0 to keep full precision"},
		})
	}
	if options.JS.Precision < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "js.precision",
			Value:       options.JS.Precision,
			Message:     "precision cannot be negative",
			Suggestions: []string{"Use 0 to keep full precision"},
		})
	}

	if !options.PatternsCSS.Enabled() && !options.PatternsHTML.Enabled() && !options.PatternsJS.Enabled() {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "patterns",
			Message: "all categories are disabled, no file will be minified",
		})
	}

	result.Valid = !result.HasErrors()

	return result
}

func validatePatterns(field string, patterns Patterns, result *ValidationResult) {
	if !patterns.Enabled() {
		return
	}

	if len(patterns) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Value:   []string(patterns),
			Message: "pattern list is empty",
			Suggestions: []string{
				"Set the field to null to disable the category",
				"Add at least one glob such as '*.css'",
			},
		})
		return
	}

	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Value:   p,
				Message: "pattern cannot be empty",
			})
		}
	}
}

// validateBuildConfig validates build configuration values
func validateBuildConfig(config *BuildConfig) error {
	if config.Input == "" {
		return fmt.Errorf("input directory cannot be empty")
	}
	if config.Output == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if filepath.Clean(config.Input) == filepath.Clean(config.Output) {
		return fmt.Errorf("output directory %q must differ from input directory", config.Output)
	}
	if config.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", config.Workers)
	}

	return nil
}
