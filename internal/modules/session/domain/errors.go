package domain

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrFileNotFound         = errors.New("file not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type, only images and videos are accepted")
	ErrNoFiles              = errors.New("no files to download")
	ErrNoUploadedFiles      = errors.New("no files in upload")
	ErrTooManyFiles         = errors.New("too many files in upload")
	ErrStorageIO            = errors.New("storage io error")
)
