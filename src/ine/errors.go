package ine

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by operations the client exposes but does not support.
	ErrNotImplemented = errors.New("ine: not implemented")
	// ErrInvalidQuery is returned when a query cannot be encoded into request parameters.
	ErrInvalidQuery = errors.New("ine: invalid query")
	// ErrInvalidLanguage is returned for language codes other than ES and EN.
	ErrInvalidLanguage = errors.New("ine: invalid language")
)

// maxErrorBody caps how much of a failed response body is kept in a TransportError.
const maxErrorBody = 512

// TransportError reports a network failure or a non-2xx response.
// StatusCode is zero when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("ine: GET %s failed: %v", e.URL, e.Err)
	case e.Body != "":
		return fmt.Sprintf("ine: GET %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("ine: GET %s returned status %d", e.URL, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not valid JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("ine: invalid JSON payload: %v", e.Err)
	}
	return fmt.Sprintf("ine: invalid JSON from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MalformedResponse reports valid JSON that lacks, or mistypes, an expected field.
// Index is the position of the offending Data element, or -1 when the payload
// itself is at fault.
type MalformedResponse struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *MalformedResponse) Error() string {
	msg := "ine: malformed response"
	if e.Index >= 0 {
		msg += fmt.Sprintf(": element %d", e.Index)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": field %s", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

// syntaxError returns the parse error for a body already known to be invalid JSON.
func syntaxError(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return err
	}
	return errors.New("invalid JSON")
}

func truncateBody(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}
	return string(body[:maxErrorBody]) + "..."
}
