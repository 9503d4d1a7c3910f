package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_priority", validateTaskPriority); err != nil {
		panic(fmt.Sprintf("failed to register task_priority validator: %v", err))
	}
}

// validateTaskStatus validates that a string is a valid TaskStatus enum value
func validateTaskStatus(fl validator.FieldLevel) bool {
	return ValidateTaskStatus(fl.Field().String()) == nil
}

// validateTaskPriority validates that a string is a valid TaskPriority enum value
func validateTaskPriority(fl validator.FieldLevel) bool {
	return ValidateTaskPriority(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	for _, s := range models.AllTaskStatuses() {
		if models.TaskStatus(value) == s {
			return nil
		}
	}
	return fmt.Errorf("invalid status: %s (must be 'Not Started', 'In Progress', 'Completed', 'Delayed', or 'Blocked')", value)
}

// ValidateTaskPriority validates a TaskPriority string value
func ValidateTaskPriority(value string) error {
	for _, p := range models.AllTaskPriorities() {
		if models.TaskPriority(value) == p {
			return nil
		}
	}
	return fmt.Errorf("invalid priority: %s (must be 'Low', 'Medium', or 'High')", value)
}

// FirstError flattens a validator error into a single user-facing message
func FirstError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fmt.Sprintf("Validation failed: %s", fieldError.Error())
		}
	}
	return "Validation failed"
}
