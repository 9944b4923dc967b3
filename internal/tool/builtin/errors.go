package builtin

import "errors"

var (
	ErrOutsideWorkspace = errors.New("path is outside the workspace")
	ErrIsDirectory      = errors.New("path is a directory")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidPattern   = errors.New("invalid pattern")
)
