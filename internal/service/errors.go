package service

import "errors"

var (
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrEmptyCompletion = errors.New("model returned no choices")
	ErrInvalidImage    = errors.New("invalid image")
	ErrInvalidCSV      = errors.New("invalid csv")
	ErrInvalidDocument = errors.New("invalid document")
	ErrInvalidURL      = errors.New("invalid url")
)
