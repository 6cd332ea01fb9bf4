package common

import "errors"

// Business logic errors
var (
	// Draft errors
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftClosed   = errors.New("draft is no longer open")
	ErrInvalidSlot   = errors.New("invalid slot")

	// Lead errors
	ErrLeadNotFound   = errors.New("lead not found")
	ErrUnknownStep    = errors.New("unknown wizard step")
	ErrOrphanedImage  = errors.New("image slot has no matching form row")
	ErrPayloadTooBig  = errors.New("request body too large")
	ErrMissingPayload = errors.New("payload field is required")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
