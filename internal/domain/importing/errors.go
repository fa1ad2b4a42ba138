package importing

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrForbiddenPath     = errors.New("invalid file path: access denied")
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParse             = errors.New("failed to parse file")
	ErrUploadTooLarge    = errors.New("file size exceeds limit")
	ErrJobNotFound       = errors.New("import job not found")
	ErrJobNotPending     = errors.New("import job is not pending")
	ErrGroupNotFound     = errors.New("asset set not found")
	ErrInvalidStrategy   = errors.New("invalid import strategy")
	ErrFatal             = errors.New("import aborted")
)
