package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateTicket checks a Ticket for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the ticket is valid.
func ValidateTicket(t *Ticket) error {
	var ve ValidationError
	validateTicket(t, "", &ve)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func validateTicket(t *Ticket, prefix string, ve *ValidationError) {
	if t == nil {
		ve.Errors = append(ve.Errors, FieldError{Field: prefix + "ticket", Message: "is null"})
		return
	}
	if strings.TrimSpace(t.ID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: prefix + "id", Message: "is required"})
	}
	if !t.Priority.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   prefix + "priority",
			Message: fmt.Sprintf("must be between 0 and 4, got %d", int(t.Priority)),
		})
	}
}

// ValidateSnapshot checks every ticket and the uniqueness of ticket and user
// identifiers within the snapshot.
func ValidateSnapshot(s *Snapshot) error {
	if s == nil {
		return nil
	}
	var ve ValidationError

	seenTickets := make(map[string]bool, len(s.Tickets))
	for i, t := range s.Tickets {
		prefix := fmt.Sprintf("tickets[%d].", i)
		validateTicket(t, prefix, &ve)
		if t == nil || t.ID == "" {
			continue
		}
		if seenTickets[t.ID] {
			ve.Errors = append(ve.Errors, FieldError{Field: prefix + "id", Message: fmt.Sprintf("duplicate id %q", t.ID)})
		}
		seenTickets[t.ID] = true
	}

	seenUsers := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		prefix := fmt.Sprintf("users[%d].", i)
		if u == nil {
			ve.Errors = append(ve.Errors, FieldError{Field: prefix + "user", Message: "is null"})
			continue
		}
		if strings.TrimSpace(u.ID) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: prefix + "id", Message: "is required"})
			continue
		}
		if seenUsers[u.ID] {
			ve.Errors = append(ve.Errors, FieldError{Field: prefix + "id", Message: fmt.Sprintf("duplicate id %q", u.ID)})
		}
		seenUsers[u.ID] = true
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
