package asset

import "errors"

var (
	ErrNameRequired    = errors.New("asset name is required")
	ErrDuplicateSerial = errors.New("asset with this serial number already exists")
	ErrInvalidStatus   = errors.New("invalid status")
)
