package repository

import "errors"

// Sentinel errors returned by repositories. Handlers map these to HTTP
// statuses with errors.Is.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateName       = errors.New("name already exists")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrAssociationNotFound = errors.New("association not found")
)
