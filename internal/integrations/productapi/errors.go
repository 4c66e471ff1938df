package productapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is a non-2xx answer from the product API.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("productapi: %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("productapi: %s: status %d: %s", e.Op, e.Status, e.Message)
}

// UserMessage returns the server-provided message, if any.
func (e *Error) UserMessage() string { return e.Message }

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeError(op string, resp *http.Response) error {
	apiErr := &Error{Op: op, Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = strings.TrimSpace(body.Error)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(body.Message)
		}
	}
	return apiErr
}
