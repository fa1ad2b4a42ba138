package asset

import "errors"

var (
	ErrInvalidAsset = errors.New("invalid asset")
	ErrCreateAsset  = errors.New("failed to create asset")
)
