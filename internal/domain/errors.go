package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrNotFound               = errors.New("resource not found")
	ErrClientNotFound         = errors.New("client not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrForbidden              = errors.New("access denied")
	ErrInvalidLineItem        = errors.New("invalid line item")
	ErrUnknownTaxKey          = errors.New("unknown tax key")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyConverted       = errors.New("document already converted")
	ErrDocumentLocked         = errors.New("document is locked")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrUnmappedTaxKey         = errors.New("tax key has no account mapping")
	ErrNotExportable          = errors.New("document not exportable")
	ErrConcurrentModification = errors.New("document was modified concurrently")
)
