package importing

import "errors"

var (
	ErrInvalidUpload  = errors.New("invalid upload")
	ErrCreateJob      = errors.New("failed to create import job")
	ErrReadImportFile = errors.New("failed to read import file")
	ErrLoadCatalog    = errors.New("failed to load schema catalog")
	ErrCommitImport   = errors.New("failed to commit import batch")
	ErrQueueFull      = errors.New("import queue is full")
)
