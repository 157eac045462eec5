// Package probe implements the "try an ordered list of candidate wire paths
// until one works" pattern shared by tool discovery, tool execution and peer
// discovery. A probe walks the candidate paths in order, issues one request
// per path and returns the first successful body; a pluggable predicate
// decides whether a failed attempt falls through to the next candidate or
// aborts the whole probe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TryNext reports whether the prober should move on to the next candidate
// path after a failed attempt. status is the HTTP status code of the
// response, or 0 when the attempt failed before a response arrived (err is
// then non-nil).
type TryNext func(status int, err error) bool

// NextOn404 falls through only on HTTP 404: any transport failure or other
// status aborts the probe immediately.
func NextOn404(status int, err error) bool { return err == nil && status == http.StatusNotFound }

// NextOnTransientOr404 falls through on HTTP 404 and on transport failures,
// aborting only on other HTTP statuses.
func NextOnTransientOr404(status int, err error) bool {
	return err != nil || status == http.StatusNotFound
}

// StatusError reports a non-2xx response from a probed endpoint.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// ExhaustedError reports that every candidate path was tried without
// success.
type ExhaustedError struct {
	Base  string
	Paths []string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no responsive endpoint on %s among [%s]", e.Base, strings.Join(e.Paths, ", "))
}

// Do walks the candidate paths in order against base. With a nil payload it
// issues GET requests, otherwise POST with a JSON body. The body of the
// first 2xx response is returned. A failed attempt is retried on the next
// path when tryNext allows it; otherwise the attempt's error is returned
// as-is.
func Do(ctx context.Context, client *http.Client, base string, paths []string, payload any, tryNext TryNext) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		if encoded, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encode probe payload: %w", err)
		}
	}
	for _, path := range paths {
		body, status, err := attempt(ctx, client, base+path, encoded)
		if err == nil && status < 300 {
			return body, nil
		}
		if tryNext(status, err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return nil, &StatusError{URL: base + path, Status: status}
	}
	return nil, &ExhaustedError{Base: base, Paths: paths}
}

func attempt(ctx context.Context, client *http.Client, url string, payload []byte) ([]byte, int, error) {
	method := http.MethodGet
	var body io.Reader
	if payload != nil {
		method = http.MethodPost
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}
