package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "storage.backend")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// storageKeyRegex limits document keys to characters safe in file names
// and SQL literals.
var storageKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidAPIModes returns the list of valid gin modes
func ValidAPIModes() []string {
	return []string{"release", "debug", "test"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Value:   c.Name,
			Message: "must not be empty",
		})
	}

	errors = append(errors, c.validateStorage()...)
	errors = append(errors, c.validateDefaults()...)
	errors = append(errors, c.validateUsers()...)
	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateStorage() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBackends(), c.Storage.Backend) {
		errors = append(errors, ValidationError{
			Field:   "storage.backend",
			Value:   c.Storage.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}

	if c.Storage.Key != "" && !storageKeyRegex.MatchString(c.Storage.Key) {
		errors = append(errors, ValidationError{
			Field:   "storage.key",
			Value:   c.Storage.Key,
			Message: "may contain only letters, digits, underscore and hyphen",
		})
	}

	if c.Storage.Backend == BackendPostgres && c.Storage.PostgresURL == "" {
		errors = append(errors, ValidationError{
			Field:   "storage.postgres_url",
			Value:   c.Storage.PostgresURL,
			Message: "is required when storage.backend is postgres",
		})
	}

	for field, path := range map[string]string{
		"storage.data_dir":    c.Storage.DataDir,
		"storage.sqlite_path": c.Storage.SQLitePath,
		"logging.dir":         c.Logging.Dir,
	} {
		errors = append(errors, validatePath(field, path)...)
	}

	return errors
}

func (c *Config) validateDefaults() []ValidationError {
	var errors []ValidationError

	if c.Defaults.EstMin < 0 {
		errors = append(errors, ValidationError{
			Field:   "defaults.est_min",
			Value:   c.Defaults.EstMin,
			Message: "must be non-negative",
		})
	}

	if strings.TrimSpace(c.Defaults.Zone) == "" {
		errors = append(errors, ValidationError{
			Field:   "defaults.zone",
			Value:   c.Defaults.Zone,
			Message: "must not be empty",
		})
	}

	if c.Defaults.User != "" && !c.IsKnownUser(c.Defaults.User) {
		errors = append(errors, ValidationError{
			Field:   "defaults.user",
			Value:   c.Defaults.User,
			Message: "must be one of the configured users",
		})
	}

	return errors
}

func (c *Config) validateUsers() []ValidationError {
	var errors []ValidationError

	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		field := fmt.Sprintf("users[%d]", i)
		switch {
		case strings.TrimSpace(u) == "":
			errors = append(errors, ValidationError{Field: field, Value: u, Message: "must not be empty"})
		case seen[u]:
			errors = append(errors, ValidationError{Field: field, Value: u, Message: "duplicate user"})
		}
		seen[u] = true
	}

	return errors
}

func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	if c.API.Listen == "" {
		errors = append(errors, ValidationError{
			Field:   "api.listen",
			Value:   c.API.Listen,
			Message: "must not be empty",
		})
	}

	if c.API.Mode != "" && !slices.Contains(ValidAPIModes(), c.API.Mode) {
		errors = append(errors, ValidationError{
			Field:   "api.mode",
			Value:   c.API.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidAPIModes(), ", ")),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func validatePath(field, path string) []ValidationError {
	if path == "" {
		return nil
	}

	var errors []ValidationError
	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: "path contains invalid null character",
		})
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}
	return errors
}
