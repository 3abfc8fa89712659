package repository

import "errors"

var (
	// ErrDuplicate indica violación de unicidad (email o credential_id).
	ErrDuplicate = errors.New("repository: duplicate")
)
