package client

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeConfig         = "ESPACE_MEMBRE_CONFIG"
	TextCodeRequestFailed  = "ESPACE_MEMBRE_REQUEST_FAILED"
	TextCodeMemberNotFound = "ESPACE_MEMBRE_MEMBER_NOT_FOUND"
)

// NewConfigError builds the error returned when required input is missing
// or invalid. These errors are never retried.
func NewConfigError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithTextCode(TextCodeConfig).
		WithCode(goerrors.CodeBadRequest)
}

// IsConfigError reports whether err was produced by NewConfigError.
func IsConfigError(err error) bool {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) || richErr == nil {
		return false
	}
	return richErr.TextCode == TextCodeConfig
}

// RequestError is returned for network and HTTP level failures.
// Response is nil when no response was received.
type RequestError struct {
	Message    string
	Method     string
	Path       string
	StatusCode int
	Response   *http.Response
	Body       []byte
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return "espace membre request error"
	}
	if e.Message != "" {
		return "espace membre: " + e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("espace membre: request failed with status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("espace membre: request failed: %v", e.Err)
	}
	return "espace membre: request failed"
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Metadata returns a loggable description of the failure.
func (e *RequestError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Method != "" {
		meta["method"] = e.Method
	}
	if e.Path != "" {
		meta["path"] = e.Path
	}
	if e.StatusCode != 0 {
		meta["status"] = e.StatusCode
	}
	if e.Err != nil {
		meta["error"] = e.Err.Error()
	}
	return meta
}

// MemberNotFoundError is returned by MemberAPI.GetByUsername when the
// directory answers 404. It unwraps to the underlying *RequestError.
type MemberNotFoundError struct {
	Username string
	*RequestError
}

func (e *MemberNotFoundError) Error() string {
	if e == nil {
		return "espace membre: member not found"
	}
	return fmt.Sprintf("espace membre: no member found with username %q", e.Username)
}

func (e *MemberNotFoundError) Unwrap() error {
	if e == nil || e.RequestError == nil {
		return nil
	}
	return e.RequestError
}

// IsMemberNotFound reports whether err is (or wraps) a *MemberNotFoundError.
func IsMemberNotFound(err error) bool {
	var nf *MemberNotFoundError
	return errors.As(err, &nf)
}

// IsRequestError reports whether err is (or wraps) a *RequestError.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr != nil {
		return reqErr.StatusCode
	}
	return 0
}
