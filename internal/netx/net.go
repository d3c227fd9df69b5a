// Package netx holds the HTTP plumbing shared by clients of the remote
// story authority: JSON request/response handling and status errors.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned for any non-2xx response. Message carries the
// server's JSON {"message": ...} when present, otherwise the status text.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Request describes one JSON call. Token, when set, is sent as a bearer
// credential. In and Out may be nil.
type Request struct {
	Method string
	URL    string
	Token  string
	In     any
	Out    any
}

// Do performs r with hc. Transport failures are returned wrapped as-is so
// callers can tell "unreachable" from "rejected" (*StatusError).
func Do(ctx context.Context, hc *http.Client, r Request) error {
	var body io.Reader
	if r.In != nil {
		b, err := json.Marshal(r.In)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.In != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.Method, r.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DecodeError(resp)
	}

	if r.Out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.Out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DecodeError builds a *StatusError from a failed response, extracting the
// JSON message when the body carries one.
func DecodeError(resp *http.Response) *StatusError {
	se := &StatusError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Message != "" {
		se.Message = payload.Message
	}
	return se
}
