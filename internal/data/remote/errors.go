package remote

import (
	"fmt"
	"strings"
)

const maxErrorBody = 512

// StatusError is returned when the collaborator answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string // leading part of the response body
}

func newStatusError(method, path string, code int, body []byte) *StatusError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return &StatusError{Method: method, Path: path, Code: code, Body: text}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}
