package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "wrapped source unavailable", err: fmt.Errorf("core.Service.Load: baseline: %w", ErrSourceUnavailable), wantCode: "SRC001"},
		{name: "malformed csv", err: fmt.Errorf("%w: line 3: bare quote", ErrMalformedSource), wantCode: "SRC002"},
		{name: "too large wins over unavailable", err: fmt.Errorf("%w: %w", ErrSourceUnavailable, ErrSourceTooLarge), wantCode: "SRC003"},
		{name: "invalid submission", err: fmt.Errorf("%w: please provide valid latitude/longitude", ErrInvalidSubmission), wantCode: "SUB001"},
		{name: "submission failed", err: fmt.Errorf("%w: Unknown error", ErrSubmissionFailed), wantCode: "SUB002"},
		{name: "limiter busy", err: ErrTooManySubmissions, wantCode: "SUB003"},
		{name: "submit disabled", err: ErrSubmitDisabled, wantCode: "SUB004"},
		{name: "no snapshot", err: ErrNoSnapshot, wantCode: "SNP001"},
		{name: "place not found", err: fmt.Errorf("lookup A9: %w", ErrPlaceNotFound), wantCode: "SNP002"},
		{name: "cancelled", err: context.Canceled, wantCode: "REQ001"},
		{name: "deadline", err: fmt.Errorf("fetch: %w", context.DeadlineExceeded), wantCode: "REQ002"},
		{name: "plain connection refused", err: errors.New("dial tcp 127.0.0.1:80: connect: connection refused"), wantCode: "SRC001"},
		{name: "plain timeout", err: errors.New("i/o TIMEOUT"), wantCode: "REQ002"},
		{name: "rate limit", err: errors.New("rate limit exceeded"), wantCode: "REQ003"},
		{name: "unknown error returns default", err: errors.New("some random internal error"), wantCode: "GEN000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, MapError(tt.err).Code)
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t,
		"Map data has not been loaded yet (Code: SNP001). Please try again in a few moments",
		FormatUserError(ErrNoSnapshot))
	assert.Empty(t, FormatUserError(nil))
}

func TestIsUserFacing(t *testing.T) {
	assert.False(t, IsUserFacing(nil))
	assert.True(t, IsUserFacing(ErrInvalidSubmission))
	assert.False(t, IsUserFacing(errors.New("random internal error xyz")))
}
