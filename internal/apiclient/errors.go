package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

var (
	ErrUnauthorized = errors.New("upstream: unauthorized")
	ErrForbidden    = errors.New("upstream: forbidden")
	ErrNotFound     = errors.New("upstream: not found")
	ErrConflict     = errors.New("upstream: conflict")
)

// InvalidParam names a request property the API rejected
type InvalidParam struct {
	PropertyName string `json:"propertyName"`
	ErrorType    string `json:"errorType"`
}

// Error is a 4xx or 5xx response from the API
type Error struct {
	StatusCode    int
	Endpoint      string
	Method        string
	Path          string
	Title         string
	Detail        string
	InvalidParams []InvalidParam
}

type problem struct {
	Title         string         `json:"title"`
	Detail        string         `json:"detail"`
	InvalidParams []InvalidParam `json:"invalid-params"`
}

func newError(r call, status int, body []byte) *Error {
	e := &Error{
		StatusCode: status,
		Endpoint:   r.name,
		Method:     r.method,
		Path:       r.path,
	}
	var p problem
	if err := json.Unmarshal(body, &p); err == nil {
		e.Title = p.Title
		e.Detail = p.Detail
		e.InvalidParams = p.InvalidParams
	} else {
		e.Detail = strings.TrimSpace(string(body))
	}
	return e
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Title != "" {
		msg += ": " + e.Title
	}
	return msg
}

// Is matches the sentinel error for the status code
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// IsInvalidParams reports whether err is a 400 naming the rejected properties
func IsInvalidParams(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && len(apiErr.InvalidParams) > 0 {
		return apiErr, true
	}
	return nil, false
}

// PropertyField strips the "$." prefix the API puts on property names
func (p InvalidParam) PropertyField() string {
	return strings.TrimPrefix(p.PropertyName, "$.")
}
