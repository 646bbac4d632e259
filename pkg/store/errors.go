package store

import "errors"

var (
	ErrTaskAlreadyExists = errors.New("task already exists")
	ErrTaskNotFound      = errors.New("task does not exist")
	ErrInvalidState      = errors.New("invalid task state")
	ErrInvalidName       = errors.New("invalid task name")
	ErrCorruptRecord     = errors.New("corrupt task record")
	ErrStoreMissing      = errors.New("task store file does not exist")
	// ErrIO wraps any failure to read or write the backing file.
	ErrIO = errors.New("task store i/o failure")
)
