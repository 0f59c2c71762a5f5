package apierr_test

// Notes:
// - Sentinel identity and wrapping are checked with errors.Is.
// - Classify is exercised with real *openai.APIError values, the type go-openai returns.
// - Unclassified errors must pass through unchanged.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-minutes/internal/apierr"
)

// ---------------------------------------------------------------------------
// TestSentinelErrorWrapping - wrapped errors still match with errors.Is
// ---------------------------------------------------------------------------

func TestSentinelErrorWrapping(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		apierr.ErrRateLimit,
		apierr.ErrQuotaExceeded,
		apierr.ErrTimeout,
		apierr.ErrAuthFailed,
		apierr.ErrBadRequest,
		apierr.ErrServer,
	}

	for _, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("%s: %w", "context message", sentinel)
			if !errors.Is(wrapped, sentinel) {
				t.Errorf("errors.Is(wrapped, %v) = false, want true", sentinel)
			}
			if !apierr.IsRemote(wrapped) {
				t.Errorf("IsRemote(%v) = false, want true", wrapped)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestClassify - HTTP status to sentinel mapping
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "429 rate limit",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"},
			want: apierr.ErrRateLimit,
		},
		{
			name: "429 quota",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "You exceeded your current quota"},
			want: apierr.ErrQuotaExceeded,
		},
		{
			name: "401 auth",
			err:  &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"},
			want: apierr.ErrAuthFailed,
		},
		{
			name: "504 timeout",
			err:  &openai.APIError{HTTPStatusCode: http.StatusGatewayTimeout, Message: "timeout"},
			want: apierr.ErrTimeout,
		},
		{
			name: "400 bad request",
			err:  &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "invalid model"},
			want: apierr.ErrBadRequest,
		},
		{
			name: "503 server",
			err:  &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"},
			want: apierr.ErrServer,
		},
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("post: %w", context.DeadlineExceeded),
			want: apierr.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := apierr.Classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify() = %v, want wrapping %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	t.Parallel()

	if got := apierr.Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}

	plain := errors.New("connection reset")
	got := apierr.Classify(plain)
	if got != plain {
		t.Errorf("Classify(plain) = %v, want the same error", got)
	}
	if apierr.IsRemote(got) {
		t.Error("IsRemote(plain) = true, want false")
	}

	if apierr.IsRemote(context.Canceled) {
		t.Error("IsRemote(context.Canceled) = true, want false")
	}
}
