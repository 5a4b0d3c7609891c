package internal

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every ValidationError
var ErrInvalidInput = errors.New("invalid input")

// StorageError represents errors writing to the knowledge root
type StorageError struct {
	Path string
	Op   string // "mkdir", "write", "create", "marshal"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents a step or metadata file that could not be decoded
type ParseError struct {
	Source string // "step", "session"
	Key    string // file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents caller input rejected before any I/O
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
