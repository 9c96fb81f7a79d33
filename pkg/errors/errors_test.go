package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{429, ErrorTypeRateLimit},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeTransport},
		{502, ErrorTypeTransport},
		{503, ErrorTypeTransport},
		{504, ErrorTypeTransport},
		{418, ErrorTypeUnknown},
	}

	for _, test := range tests {
		err := FromStatusCode(test.code, "GET /whatever")
		if err.Type != test.expected {
			t.Errorf("status %d: expected type %s, got %s", test.code, test.expected, err.Type)
		}
		if err.Code != test.code {
			t.Errorf("status %d: expected code preserved, got %d", test.code, err.Code)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeRateLimit, ErrorTypeTransport, ErrorTypeAuth}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("expected %s to be retryable", et)
		}
	}

	terminal := []ErrorType{ErrorTypeParsing, ErrorTypeNotFound, ErrorTypeJobFailed, ErrorTypeJobTimeout, ErrorTypeUnknown}
	for _, et := range terminal {
		if IsRetryable(et) {
			t.Errorf("expected %s not to be retryable", et)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	for _, code := range []int{0, 429, 500, 502, 503, 504, 401, 403, 599} {
		if !IsRetryableStatusCode(code) {
			t.Errorf("expected %d to be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 404, 422} {
		if IsRetryableStatusCode(code) {
			t.Errorf("expected %d not to be retryable", code)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeTransport, 503, "GET %s failed", "/items")
	if !strings.Contains(err.Error(), "transport") || !strings.Contains(err.Error(), "503") {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	if errors.Is(ErrNoContent, ErrNoUsers) {
		t.Error("sentinels must not match each other")
	}
}
