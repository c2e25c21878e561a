package storage

import "errors"

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidData  = errors.New("invalid data")
	ErrStorageInit  = errors.New("storage initialization failed")
)
