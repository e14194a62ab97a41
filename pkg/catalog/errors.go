package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	// ErrNetwork matches transport failures.
	ErrNetwork = errors.New("network error")

	// ErrHTTPStatus matches non-2xx responses.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrDecode matches bodies that do not match the expected schema.
	ErrDecode = errors.New("decode error")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents malformed or corrupt payloads.
	ErrorClassDecode ErrorClass = "decode"
)

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error requesting %s: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is matches ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// HTTPStatusError is returned for any response outside the 2xx range.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	// Message is the server supplied error text, if any.
	Message string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http status %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("http status %d from %s", e.StatusCode, e.URL)
}

// Is matches ErrHTTPStatus.
func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// IsNotFound reports a 404, which the API also uses for pages past the end
// of a filtered result set.
func (e *HTTPStatusError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Class returns the error class for the status code.
func (e *HTTPStatusError) Class() ErrorClass {
	if e.StatusCode >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// DecodeError is returned when a response body cannot be decoded.
type DecodeError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Classify maps an error returned by this package (or the image cache,
// which shares the taxonomy) to its ErrorClass. Unknown errors yield "".
func Classify(err error) ErrorClass {
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &statusErr):
		return statusErr.Class()
	case errors.Is(err, ErrDecode):
		return ErrorClassDecode
	case errors.Is(err, ErrNetwork):
		return ErrorClassNetwork
	default:
		return ""
	}
}

// Message converts an error into the short text shown to a user.
func Message(err error) string {
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &statusErr):
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return fmt.Sprintf("Server returned %d %s", statusErr.StatusCode, http.StatusText(statusErr.StatusCode))
	case errors.Is(err, ErrDecode):
		return "The server sent data that could not be read"
	case errors.Is(err, ErrNetwork):
		return "The network connection failed"
	default:
		return err.Error()
	}
}
