package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
)

// expenseRules holds the field constraints of a new expense that validator
// tags can express. Money and membership rules are checked in validateExpense.
type expenseRules struct {
	GroupID      string   `validate:"required"`
	Description  string   `validate:"required,max=200"`
	Category     string   `validate:"max=50"`
	PaidBy       string   `validate:"required"`
	Participants []string `validate:"required,min=1,unique,dive,required"`
	CreatedBy    string   `validate:"required"`
}

// validateExpense checks a new expense before anything is read or written.
func (s *Service) validateExpense(e *models.Expense) error {
	rules := expenseRules{
		GroupID:      e.GroupID,
		Description:  strings.TrimSpace(e.Description),
		Category:     e.Category,
		PaidBy:       e.PaidBy,
		Participants: e.Participants,
		CreatedBy:    e.CreatedBy,
	}
	if err := s.validate.Struct(rules); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("failed to validate expense: %w", err)
	}

	if e.SplitType == "" {
		e.SplitType = models.SplitEqual
	}
	if e.SplitType != models.SplitEqual {
		return fmt.Errorf("split type %q: %w", e.SplitType, apperrors.ErrUnsupportedSplitKind)
	}
	if !e.Amount.IsPositive() {
		return apperrors.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if !e.HasParticipant(e.PaidBy) {
		return apperrors.ValidationError{Field: "paid_by", Message: "payer must be a participant"}
	}
	return nil
}

func fieldError(fe validator.FieldError) apperrors.ValidationError {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperrors.ValidationError{Field: field, Message: "is required"}
	case "min":
		return apperrors.ValidationError{Field: field, Message: "must not be empty"}
	case "max":
		return apperrors.ValidationError{Field: field, Message: "is too long"}
	case "unique":
		return apperrors.ValidationError{Field: field, Message: "must not contain duplicates"}
	default:
		return apperrors.ValidationError{Field: field, Message: fmt.Sprintf("failed %q check", fe.Tag())}
	}
}

// toSnake converts a Go field name such as "PaidBy" or "Participants[1]" to
// the wire name "paid_by" or "participants[1]".
func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
