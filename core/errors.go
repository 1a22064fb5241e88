package core

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrCorruptData   = errors.New("stored data is corrupt")
)
