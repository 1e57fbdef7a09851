package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidParams      = errors.New("invalid generation params")
	ErrInvalidStatus      = errors.New("invalid job status for operation")
	ErrAlreadyApproved    = errors.New("job already approved")
	ErrNoJobAvailable     = errors.New("no job available")
	ErrDuplicateOperation = errors.New("duplicate operation")
)
