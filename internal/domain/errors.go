package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindValidation             ErrorKind = "VALIDATION_ERROR"
	KindStockConflict          ErrorKind = "STOCK_CONFLICT"
	KindInvalidStateTransition ErrorKind = "INVALID_STATE_TRANSITION"
	KindQuantityOverrun        ErrorKind = "QUANTITY_OVERRUN"
	KindPlanLimitExceeded      ErrorKind = "PLAN_LIMIT_EXCEEDED"
	KindUnauthorized           ErrorKind = "UNAUTHORIZED"
)

// Error is a business-rule violation. Anything that is not an *Error is an
// unexpected failure and must not leak to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the kind of err, or "" when err is not a business error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func NewNotFound(resource string, id int32) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// NewValidation builds a validation error from field -> problem pairs.
func NewValidation(message string, fields map[string]string) *Error {
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func NewStockConflict(equipmentID int32, equipmentName string, requested, available int) *Error {
	return &Error{
		Kind: KindStockConflict,
		Message: fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
			equipmentName, requested, available),
		Details: map[string]any{
			"equipmentId": equipmentID,
			"requested":   requested,
			"available":   available,
		},
	}
}

func NewInvalidStateTransition(message string, from BookingStatus) *Error {
	return &Error{
		Kind:    KindInvalidStateTransition,
		Message: message,
		Details: map[string]any{"status": from},
	}
}

func NewQuantityOverrun(equipmentName string, requested, pending int) *Error {
	return &Error{
		Kind: KindQuantityOverrun,
		Message: fmt.Sprintf("return quantity for %s exceeds pending quantity: requested %d, pending %d",
			equipmentName, requested, pending),
		Details: map[string]any{
			"equipment": equipmentName,
			"requested": requested,
			"pending":   pending,
		},
	}
}

func NewPlanLimitExceeded(limit *PlanLimit) *Error {
	msg := limit.Message
	if msg == "" {
		msg = fmt.Sprintf("plan limit reached: %d of %d bookings used", limit.Current, limit.Max)
	}
	return &Error{
		Kind:    KindPlanLimitExceeded,
		Message: msg,
		Details: map[string]any{
			"limitType":  limit.LimitType,
			"current":    limit.Current,
			"max":        limit.Max,
			"upgradeUrl": limit.UpgradeURL,
		},
	}
}

func NewUnauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}
