// Package errs provides coded errors shared by the remote adapter, the
// stores and the widget refresh path.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code names an error category.
type Code string

const (
	// Remote failures. Only repository adapters construct these.
	CodeTransport  Code = "TRANSPORT"
	CodeValidation Code = "VALIDATION"
	CodeAuth       Code = "AUTH"
	CodeNotFound   Code = "NOT_FOUND"

	// Local failures.
	CodeEncoding       Code = "ENCODING"
	CodePersistence    Code = "PERSISTENCE"
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// CodeStaleSnapshot marks a background fetch that failed and left the
	// previous widget snapshot in place.
	CodeStaleSnapshot Code = "STALE_SNAPSHOT"
)

// Error is a structured error with a category and optional details.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON.
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps err with a code.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// Is reports whether any error in err's chain is an *Error with code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost code from err, or "" when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRemote reports whether err is one of the repository failure categories.
func IsRemote(err error) bool {
	switch GetCode(err) {
	case CodeTransport, CodeValidation, CodeAuth, CodeNotFound:
		return true
	}
	return false
}
