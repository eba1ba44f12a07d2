package services

import "errors"

// Data service errors
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrInvalidInput     = errors.New("invalid input")
)
