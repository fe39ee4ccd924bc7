package core

// error_messages.go maps technical errors to user-facing messages with codes
// that can be quoted to support.
//
//	CHK001  step out of range      the host stepped past the run's step count
//	CHK002  stage not set up       Perform was called before Setup
//	RUN001  run cancelled
//	RUN002  too many runs          all run slots are busy
//	RUN003  run not found          unknown or expired run id
//	RUN004  run timed out
//	SRC001  dataset parse error
//	SRC002  unknown record kind
//	DB001   database unreachable
//	DB002   database timeout
//	RATE001 rate limited
//	GEN001  anything else; check the logs for the technical error
//
// Sentinel errors are matched with errors.Is first. Errors coming from
// drivers are matched by substring, case-insensitively.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDatasetParse wraps dataset decoding failures.
var ErrDatasetParse = errors.New("dataset parse error")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrStepOutOfRange, UserMessage{"The check stepped past the last record", "Restart the check run", "CHK001"}},
	{ErrNotSetUp, UserMessage{"The check stage was not prepared", "Restart the check run", "CHK002"}},
	{ErrTooManyRuns, UserMessage{"Too many checks are running", "Wait for a running check to finish and try again", "RUN002"}},
	{ErrRunNotFound, UserMessage{"Check run not found", "The run may have expired; start a new check", "RUN003"}},
	{ErrDatasetParse, UserMessage{"The dataset could not be read", "Fix the dataset file and try again", "SRC001"}},
	{ErrUnknownKind, UserMessage{"The dataset names an unknown record kind", "Use one of the kinds listed by /api/kinds", "SRC002"}},
	{context.Canceled, UserMessage{"The check run was cancelled", "Start a new check when ready", "RUN001"}},
	{context.DeadlineExceeded, UserMessage{"The check run timed out", "Try again or raise CHECK_TIMEOUT", "RUN004"}},
}

var patternMessages = []struct {
	pattern string
	msg     UserMessage
}{
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB001"}},
	{"connection reset", UserMessage{"Unable to connect to database", "Please try again", "DB001"}},
	{"timeout", UserMessage{"Database operation timed out", "Please try again later", "DB002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "GEN001",
}

// MapError converts a technical error to a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range patternMessages {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
