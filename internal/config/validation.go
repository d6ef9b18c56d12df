package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"text", "json"}
	validOutputs = []string{"stderr", "stdout", "file", "both"}
)

// ValidateConfig checks every section and reports all problems at once.
func ValidateConfig(c *Config) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs ValidationErrors

	errs = append(errs, validateLogging(&c.Logging)...)

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "journal.path",
			Message: "required when the journal is enabled",
		})
	}

	if c.Watch.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce_ms",
			Message: fmt.Sprintf("must not be negative, got %d", c.Watch.DebounceMs),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	if l.Level != "" && !contains(validLevels, strings.ToLower(l.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q (valid: %s)", l.Level, strings.Join(validLevels, ", ")),
		})
	}
	if l.Format != "" && !contains(validFormats, strings.ToLower(l.Format)) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q (valid: %s)", l.Format, strings.Join(validFormats, ", ")),
		})
	}

	output := strings.ToLower(l.Output)
	if output != "" && !contains(validOutputs, output) {
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid output %q (valid: %s)", l.Output, strings.Join(validOutputs, ", ")),
		})
	}
	if (output == "file" || output == "both") && l.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required when logging to a file",
		})
	}
	if l.FilePath != "" && !filepath.IsAbs(l.FilePath) && strings.HasPrefix(l.FilePath, "~") {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "~ is not expanded; use an absolute path",
		})
	}

	return errs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
