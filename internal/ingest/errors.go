package ingest

import (
	"errors"
	"fmt"
)

// Failure kinds returned by the pipeline. Use errors.Is against these.
var (
	ErrParseFailure          = errors.New("unreadable file")
	ErrUnsupportedFormat     = errors.New("unsupported file format")
	ErrUnsupportedEncryption = errors.New("spreadsheet is password-protected")
	ErrEmptyResult           = errors.New("no valid transactions found")
	ErrTooLarge              = errors.New("file too large")
)

// EncryptionHint tells the user how to supply a spreadsheet password.
const EncryptionHint = "set KOREAN_BANK_PASSWORD, pass --password, or export the file as CSV"

// Error is a failed ingest of one file.
type Error struct {
	Kind     error
	Filename string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Filename, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if errors.Is(e.Kind, ErrUnsupportedEncryption) {
		msg += " (" + EncryptionHint + ")"
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(kind error, filename string, err error) *Error {
	return &Error{Kind: kind, Filename: filename, Err: err}
}
