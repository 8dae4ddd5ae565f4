package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("invalid input")
	ErrDocumentParse = errors.New("document parse failed")
	ErrGateway       = errors.New("model gateway failed")
)

// ValidationError reports user input that was rejected before any state change.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) UserMessage() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DocumentParseError means the uploaded bytes could not be read as a PDF.
type DocumentParseError struct {
	Err error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("could not process PDF: %v", e.Err)
}

func (e *DocumentParseError) UserMessage() string {
	return "Could not process PDF. Please upload a valid, unencrypted PDF file."
}

func (e *DocumentParseError) Unwrap() []error {
	return []error{ErrDocumentParse, e.Err}
}

// GatewayError wraps every failure of a provider call: network, auth,
// rate limits and empty replies are not distinguished.
type GatewayError struct {
	Provider string
	Op       string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GatewayError) UserMessage() string {
	return "Error processing request. Please try again."
}

func (e *GatewayError) Unwrap() []error {
	return []error{ErrGateway, e.Err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsDocumentParse(err error) bool {
	var d *DocumentParseError
	return errors.As(err, &d)
}

func IsGateway(err error) bool {
	var g *GatewayError
	return errors.As(err, &g)
}

// UserMessage returns the text shown inline to the user for err.
func UserMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return "An unexpected error occurred."
}
