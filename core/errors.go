package core

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of pipeline errors for handling purposes.
type ErrorClass int

const (
	// ParseRecoverable is a malformed fragment that degrades to escaped text.
	ParseRecoverable ErrorClass = iota
	// AssetOperationFailed is an Asset Store upload or delete failure.
	AssetOperationFailed
	// ReferenceUnresolvable is a classified media node without a usable URL.
	ReferenceUnresolvable
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ParseRecoverable:
		return "parse_recoverable"
	case AssetOperationFailed:
		return "asset_operation_failed"
	case ReferenceUnresolvable:
		return "reference_unresolvable"
	default:
		return "unknown"
	}
}

// Standard error variables.
var (
	ErrUnsupportedKind      = errors.New("unsupported media kind")
	ErrUploadTooLarge       = errors.New("upload exceeds size limit")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrObjectNotFound       = errors.New("object not found")
	ErrEmptyStorageKey      = errors.New("empty storage key")
)

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class ErrorClass
	Op    string
	Err   error
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Op == "" {
		return fmt.Sprintf("%s: %v", ce.Class, ce.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ce.Class, ce.Op, ce.Err)
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify wraps err with the given class. A nil err stays nil.
func Classify(class ErrorClass, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: class, Op: op, Err: err}
}

func isClass(err error, class ErrorClass) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == class
	}
	return false
}

// IsParseRecoverable reports whether err is a contained parse failure.
func IsParseRecoverable(err error) bool { return isClass(err, ParseRecoverable) }

// IsAssetOperationFailed reports whether err came from the Asset Store.
func IsAssetOperationFailed(err error) bool { return isClass(err, AssetOperationFailed) }

// IsReferenceUnresolvable reports whether err marks a media node without a URL.
func IsReferenceUnresolvable(err error) bool { return isClass(err, ReferenceUnresolvable) }
