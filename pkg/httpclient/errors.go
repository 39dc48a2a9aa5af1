package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

// upstreamError covers the error body shapes returned by the vendor APIs we
// call: {"error":{"code","message"}}, {"error":"..."} and {"message":"..."}.
type upstreamError struct {
	Error   json.RawMessage `json:"error"`
	Message any             `json:"message"`
}

// ParseResponseError consumes and closes a non-2xx response body and maps it
// onto the application error taxonomy.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}
	message := extractMessage(bodyBytes)

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(fmt.Sprintf("%s rejected request: %s", upstream, message))
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(upstream+" resource", message)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return apperrors.Unavailable(upstream, fmt.Errorf("status %d: %s", resp.StatusCode, message))
	default:
		return fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, message)
	}
}

func extractMessage(body []byte) string {
	var ue upstreamError
	if json.Unmarshal(body, &ue) == nil {
		if len(ue.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(ue.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(ue.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		switch m := ue.Message.(type) {
		case string:
			return m
		case []any:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, "; ")
		}
	}
	return strings.TrimSpace(string(body))
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
