// Package workflow validates and applies demand status transitions.
// All functions are pure: they take a demand value and return a
// modified copy, leaving persistence to the caller.
package workflow

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chaabi-dev/demandhub/internal/models"
)

const (
	// CommentMinLength is the minimum trimmed length of a rejection comment.
	CommentMinLength = 10
	// CommentMaxLength is the maximum trimmed length of a rejection comment.
	CommentMaxLength = 500
)

// InvalidTransitionError reports an attempt to move a demand out of
// a terminal state.
type InvalidTransitionError struct {
	// From is the status the demand is currently in.
	From models.Status
	// To is the requested target status.
	To models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s: only pending demands can change status", e.From, e.To)
}

// ValidationError reports a field value that violates a workflow constraint.
type ValidationError struct {
	// Field names the offending field.
	Field string
	// Message is a human-readable description of the violation.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Approve moves a pending demand to approved, clearing any rejection
// comment. Fails with *InvalidTransitionError when the demand is not
// pending.
func Approve(d models.Demand) (models.Demand, error) {
	if d.Status != models.StatusPending {
		return models.Demand{}, &InvalidTransitionError{From: d.Status, To: models.StatusApproved}
	}
	d.Status = models.StatusApproved
	d.RejectionComment = ""
	return d, nil
}

// Reject moves a pending demand to rejected with the given comment.
// The comment must have a trimmed length between CommentMinLength and
// CommentMaxLength; violations fail with *ValidationError. Non-pending
// demands fail with *InvalidTransitionError. The comment is stored
// verbatim, not trimmed.
func Reject(d models.Demand, comment string) (models.Demand, error) {
	if d.Status != models.StatusPending {
		return models.Demand{}, &InvalidTransitionError{From: d.Status, To: models.StatusRejected}
	}
	if err := ValidateComment(comment); err != nil {
		return models.Demand{}, err
	}
	d.Status = models.StatusRejected
	d.RejectionComment = comment
	return d, nil
}

// ValidateComment checks the rejection-comment length constraint.
func ValidateComment(comment string) error {
	// Length is counted in characters, not bytes.
	length := utf8.RuneCountInString(strings.TrimSpace(comment))
	if length < CommentMinLength {
		return &ValidationError{
			Field:   "comment",
			Message: fmt.Sprintf("must contain at least %d characters", CommentMinLength),
		}
	}
	if length > CommentMaxLength {
		return &ValidationError{
			Field:   "comment",
			Message: fmt.Sprintf("must contain at most %d characters", CommentMaxLength),
		}
	}
	return nil
}
