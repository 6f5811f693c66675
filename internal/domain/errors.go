package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidContent   = errors.New("invalid content")
	ErrInvalidContainer = errors.New("invalid container")
	ErrInvalidStatus    = errors.New("invalid status")
)
