package core

// # Error Codes Reference
//
// Errors shown to map users carry a short code that can be quoted when
// reporting a problem. Codes are grouped by category:
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: A data file could not be downloaded
//	         Action: Showing the last loaded data; it will refresh automatically
//	         Matches: ErrSourceUnavailable, "connection refused", "no such host"
//
//	SRC002 - Invalid CSV: A data file is not valid CSV
//	         Action: Check the published sheet for stray quotes
//	         Matches: ErrMalformedSource
//
//	SRC003 - Source too large: A data file exceeds the size limit
//	         Action: Raise SOURCE_MAX_BYTES or check the source URL
//	         Matches: ErrSourceTooLarge
//
// # Submission Errors (SUB001-SUB099)
//
//	SUB001 - Invalid submission: The form is missing required values
//	         Action: Check the location and action fields
//	         Matches: ErrInvalidSubmission
//
//	SUB002 - Submission failed: The survey service did not accept the form
//	         Action: Your entries were kept; please try again
//	         Matches: ErrSubmissionFailed
//
//	SUB003 - System busy: Too many submissions in progress
//	         Action: Please wait a moment and try again
//	         Matches: ErrTooManySubmissions
//
//	SUB004 - Submissions disabled: No survey endpoint is configured
//	         Action: Contact the site maintainer
//	         Matches: ErrSubmitDisabled
//
// # Snapshot Errors (SNP001-SNP099)
//
//	SNP001 - Not loaded: Map data has not been loaded yet
//	         Action: Please try again in a few moments
//	         Matches: ErrNoSnapshot
//
//	SNP002 - Place not found: The place is not on the current map
//	         Action: Refresh the map; it may have been removed
//	         Matches: ErrPlaceNotFound
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Matches: context.Canceled
//
//	REQ002 - Request timeout
//	         Matches: context.DeadlineExceeded, "timeout"
//
//	REQ003 - Rate limited: Too many requests
//	         Matches: "rate limit"
//
// # Default Error (GEN000)
//
// Fallback when nothing matches. Check the server logs for the original error.
//
// Sentinel errors are checked with errors.Is first, in table order; only then
// are message patterns matched case-insensitively. The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgSourceUnavailable = UserMessage{
		Message: "A data file could not be downloaded",
		Action:  "Showing the last loaded data; it will refresh automatically",
		Code:    "SRC001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Please try again",
		Code:    "REQ002",
	}
)

// sentinelMessages is ordered most specific first. ErrSourceTooLarge must
// precede the generic source errors.
var sentinelMessages = []sentinelMessage{
	{ErrSourceTooLarge, UserMessage{
		Message: "A data file exceeds the size limit",
		Action:  "Raise SOURCE_MAX_BYTES or check the source URL",
		Code:    "SRC003",
	}},
	{ErrMalformedSource, UserMessage{
		Message: "A data file is not valid CSV",
		Action:  "Check the published sheet for stray quotes",
		Code:    "SRC002",
	}},
	{ErrSourceUnavailable, msgSourceUnavailable},
	{ErrInvalidSubmission, UserMessage{
		Message: "The form is missing required values",
		Action:  "Check the location and action fields",
		Code:    "SUB001",
	}},
	{ErrSubmitDisabled, UserMessage{
		Message: "Submissions are disabled",
		Action:  "Contact the site maintainer",
		Code:    "SUB004",
	}},
	{ErrTooManySubmissions, UserMessage{
		Message: "Too many submissions in progress",
		Action:  "Please wait a moment and try again",
		Code:    "SUB003",
	}},
	{ErrSubmissionFailed, UserMessage{
		Message: "The survey service did not accept the form",
		Action:  "Your entries were kept; please try again",
		Code:    "SUB002",
	}},
	{ErrNoSnapshot, UserMessage{
		Message: "Map data has not been loaded yet",
		Action:  "Please try again in a few moments",
		Code:    "SNP001",
	}},
	{ErrPlaceNotFound, UserMessage{
		Message: "The place is not on the current map",
		Action:  "Refresh the map; it may have been removed",
		Code:    "SNP002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPatterns catches errors that arrive without a sentinel, such as
// stringly-typed errors from the HTTP client or middleware.
var errorPatterns = []errorPattern{
	{"connection refused", msgSourceUnavailable},
	{"no such host", msgSourceUnavailable},
	{"timeout", msgTimeout},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "REQ003",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "GEN000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
//
// Example:
//
//	msg := MapError(fmt.Errorf("load: %w", ErrSourceUnavailable))
//	// msg.Code == "SRC001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than GEN000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
