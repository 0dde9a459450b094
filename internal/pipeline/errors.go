package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// AuthorizationMessage is the only detail an authorization failure exposes.
const AuthorizationMessage = "You are not authorized to perform this action"

// ValidationError reports malformed input, recoverable by resubmission.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message against a field and returns the receiver for
// chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Messages returns per-field messages as "field message" strings, sorted by
// field for stable output.
func (e *ValidationError) Messages() []string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		for _, message := range e.Fields[field] {
			messages = append(messages, field+" "+message)
		}
	}
	return messages
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// AuthorizationError carries a fixed user-facing message and never explains
// why the check failed.
type AuthorizationError struct{}

func (e *AuthorizationError) Error() string {
	return AuthorizationMessage
}

// InvalidStateError reports an illegal status transition.
type InvalidStateError struct {
	From string
	To   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// NotFoundError reports an absent target entity or board.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError reports an operation rejected because of existing state,
// e.g. continuing a board that was already continued.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
