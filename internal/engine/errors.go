package engine

import (
	"fmt"

	"github.com/senyabanana/freight-bidding/internal/models"
)

type RejectReason string // Код причины отклонения предложения

const (
	ReasonWindowClosed       RejectReason = "WINDOW_CLOSED"
	ReasonNotEligible        RejectReason = "NOT_ELIGIBLE"
	ReasonInvalidAmount      RejectReason = "INVALID_AMOUNT"
	ReasonBelowFloor         RejectReason = "BELOW_FLOOR"
	ReasonAboveCeiling       RejectReason = "ABOVE_CEILING"
	ReasonNotLowerThanOwnBid RejectReason = "NOT_LOWER_THAN_OWN_BID"
	ReasonDuplicateActiveBid RejectReason = "DUPLICATE_ACTIVE_BID"
)

// ValidationError - ошибка проверки предложения, всегда возвращается вызывающему как есть.
type ValidationError struct {
	Reason RejectReason
}

func (e *ValidationError) Error() string {
	return string(e.Reason)
}

// NewValidationError создает ошибку проверки с указанной причиной.
func NewValidationError(reason RejectReason) *ValidationError {
	return &ValidationError{Reason: reason}
}

// StateError - попытка недопустимого перехода состояния; состояние заявки не меняется.
type StateError struct {
	From  models.RequestState
	Event string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("event %q is not allowed in state %q", e.Event, e.From)
}

// NewStateError создает ошибку недопустимого перехода.
func NewStateError(from models.RequestState, event string) *StateError {
	return &StateError{From: from, Event: event}
}
