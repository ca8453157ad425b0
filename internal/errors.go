package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrUnpairedReply is returned when an assistant turn would not follow a pending user turn
	ErrUnpairedReply = errors.New("assistant reply has no pending user turn")

	// ErrModelLocked is returned when switching models after the conversation has started
	ErrModelLocked = errors.New("model cannot be changed once the conversation has started; clear it first")
)

// EmptyInputError is returned when a prompt is blank after trimming
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "empty input: enter a question before sending"
}

// TransportError wraps a failed request to the model endpoint
type TransportError struct {
	Model string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [%s]: %v", e.Model, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AttachmentError represents a failure reading or copying an attachment
type AttachmentError struct {
	Path string
	Op   string // "read", "stat", "copy"
	Err  error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AttachmentError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// MalformedPackageError means the import source could not be parsed as its container format
type MalformedPackageError struct {
	Source string
	Err    error
}

func (e *MalformedPackageError) Error() string {
	return fmt.Sprintf("malformed package %s: %v", e.Source, e.Err)
}

func (e *MalformedPackageError) Unwrap() error {
	return e.Err
}

// InvalidShapeError means the top-level turn collection is missing or not a sequence
type InvalidShapeError struct {
	Source string
	Found  string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("invalid package %s: conversation must be a list, found %s", e.Source, e.Found)
}

// InvalidTurnError means one element of the turn collection is unusable
type InvalidTurnError struct {
	Source string
	Index  int
	Reason string
}

func (e *InvalidTurnError) Error() string {
	return fmt.Sprintf("invalid turn %d in %s: %s", e.Index, e.Source, e.Reason)
}

// StoreError represents errors reading or writing the session store
type StoreError struct {
	Path string
	Op   string // "open", "load", "save", "clear"
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
