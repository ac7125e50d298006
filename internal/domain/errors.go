package domain

import "errors"

var (
	ErrNoBackendSelected   = errors.New("no backend selected")
	ErrNoDocuments         = errors.New("no documents provided")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrRunNotFound         = errors.New("benchmark run not found")
	ErrUnknownBackend      = errors.New("unknown backend label")
)
