package invoice

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEncoding        = errors.New("encoding failed")
	ErrNotFound        = errors.New("invoice not found")
	ErrDuplicateID     = errors.New("duplicate payment hash")
	ErrDuplicateLabel  = errors.New("duplicate label")
	ErrAlreadyPaid     = errors.New("invoice already paid")
)
