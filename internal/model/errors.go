package model

import "errors"

// Error kinds shared by every layer. Components wrap these with context using
// fmt.Errorf("...: %w", ...) and callers test them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrAuthorization     = errors.New("not authorized")
	ErrAuthentication    = errors.New("not authenticated")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrStorage           = errors.New("storage failure")
)
