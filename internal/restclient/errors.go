package restclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx response. Code and Message carry the WordPress
// error envelope when the server sent one.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

func newHTTPError(method, path string, resp *http.Response, payload []byte) *HTTPError {
	httpErr := &HTTPError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
	}
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		httpErr.Code = envelope.Code
		httpErr.Message = envelope.Message
	} else if text := strings.TrimSpace(string(payload)); text != "" && len(text) <= 200 {
		httpErr.Message = text
	}
	return httpErr
}
