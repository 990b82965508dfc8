package errors

import (
	"fmt"
	"strings"
)

// Error codes
const (
	CodeBotError   = "BOT_ERROR"
	CodeConfig     = "CONFIG_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeTransport  = "TRANSPORT_ERROR"
)

type BotError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

func NewBotError(message, code string, statusCode int, context map[string]any) *BotError {
	return &BotError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *BotError) WithCause(cause error) *BotError {
	e.Cause = cause
	return e
}

// ConfigError marks registration-time misuse: an invalid scope or hook name,
// a router used as its own plugin, a malformed pairing number, a pattern that
// does not compile, or an args schema whose required fields follow optional
// ones. Raised synchronously during setup, never during dispatch.
type ConfigError struct {
	*BotError
}

func NewConfigError(message string, context map[string]any) *ConfigError {
	return &ConfigError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeConfig,
			StatusCode: 500,
			Context:    context,
		},
	}
}

// Issue is a single validation failure at a path inside the parsed value.
// Path is empty at the root, dotted otherwise ("name", "items.0").
type Issue struct {
	Message string
	Path    string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// ValidationError aggregates every issue found while parsing one value.
type ValidationError struct {
	*BotError
	Issues []Issue
}

func NewValidationError(issues []Issue) *ValidationError {
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return &ValidationError{
		BotError: &BotError{
			Message:    fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; ")),
			Code:       CodeValidation,
			StatusCode: 400,
			Context:    map[string]any{"issues": len(issues)},
		},
		Issues: issues,
	}
}
