package domain

import "errors"

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrNoCurrentSession       = errors.New("no current session")
	ErrEmptyMessage           = errors.New("message is empty")
	ErrMessageIndexOutOfRange = errors.New("message index out of range")
	ErrNotUserMessage         = errors.New("only user messages can be edited")
	ErrNoPendingEdit          = errors.New("no pending edit")
	ErrIngestPasswordMismatch = errors.New("incorrect password, access denied")
	ErrUploadNotConfigured    = errors.New("upload URL is not configured")
)

var (
	ErrIngestNameRequired  = errors.New("file name is required")
	ErrNoIngestFiles       = errors.New("no files selected")
	ErrUnsupportedFileType = errors.New("please upload a .xlsx file")
)
