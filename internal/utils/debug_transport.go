package utils

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"lawgic/pkg/logger"
)

var sensitiveHeaders = []string{"authorization", "x-api-key", "api-key", "cookie"}

var sensitiveJSONField = regexp.MustCompile(`"(api_key|apiKey|password|secret|token)"\s*:\s*"[^"]*"`)

// DebugTransport logs outgoing provider requests with credentials redacted.
type DebugTransport struct {
	base http.RoundTripper
}

func NewDebugTransport(base http.RoundTripper) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		logger.WithFields(logger.Fields{"url": req.URL.String()}).Errorf("provider request failed: %v", err)
	}
	return resp, err
}

func (t *DebugTransport) logRequest(req *http.Request) {
	entry := logger.WithFields(logger.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	headers := make([]string, 0, len(req.Header))
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			headers = append(headers, name+": [REDACTED]")
			continue
		}
		headers = append(headers, name+": "+strings.Join(values, ", "))
	}
	entry = entry.WithField("headers", headers)

	if req.Body == nil {
		entry.Debug("provider request")
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		entry.Errorf("read request body: %v", err)
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	entry.WithFields(logger.Fields{
		"body_bytes": len(body),
		"body":       RedactJSON(string(body)),
	}).Debug("provider request")
}

// RedactJSON blanks the values of well-known secret fields.
func RedactJSON(s string) string {
	return sensitiveJSONField.ReplaceAllString(s, `"$1": "[REDACTED]"`)
}

func isSensitiveHeader(name string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
