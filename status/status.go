// Package status carries the pipeline's typed failure surface: every stage
// either completes or returns a *Status, and the host turns that into an
// HTTP response or a redirect. There is no retry anywhere.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a pipeline failure.
type Code int

const (
	// InvalidImage means the input bytes match no known codec signature.
	InvalidImage Code = iota + 1
	// UnreadableImage means the codec recognized the format but could not
	// decode it.
	UnreadableImage
	// TooLargeImage means the resolved page count or pixel area exceeds a
	// configured limit.
	TooLargeImage
	// UnsupportedSaver means the negotiated output format is disabled.
	UnsupportedSaver
	// ProcessingFailed covers codec write errors and encode timeouts.
	ProcessingFailed
)

func (c Code) String() string {
	switch c {
	case InvalidImage:
		return "invalid_image"
	case UnreadableImage:
		return "unreadable_image"
	case TooLargeImage:
		return "too_large_image"
	case UnsupportedSaver:
		return "unsupported_saver"
	default:
		return "processing_failed"
	}
}

// HTTPStatus is the fixed response code for each failure kind.
func (c Code) HTTPStatus() int {
	switch c {
	case InvalidImage, UnreadableImage, TooLargeImage:
		return http.StatusNotFound
	case UnsupportedSaver:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Status is a terminal pipeline failure. It implements error so it can
// travel through ordinary error returns and be recovered with errors.As.
type Status struct {
	Code    Code
	Message string
}

func New(code Code, message string) *Status {
	return &Status{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (s *Status) Error() string {
	return s.Message
}

// Body renders the JSON error document attached to every failure response.
func (s *Status) Body() []byte {
	doc := struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}{
		Status:  s.Code.HTTPStatus(),
		Message: s.Message,
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return []byte(`{"status":500,"message":"marshal error body"}`)
	}
	return out
}

// From recovers a *Status from any error, wrapping unknown failures as
// ProcessingFailed so the host always has a mappable status.
func From(err error) *Status {
	var st *Status
	if errors.As(err, &st) {
		return st
	}
	return &Status{Code: ProcessingFailed, Message: err.Error()}
}
