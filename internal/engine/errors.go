package engine

import (
	"errors"
	"fmt"
)

// CorrelationError explains why a server notification did not produce a
// cooldown.
//
// Correlation failures are local: Session.OnChatMessage logs them and the
// host only observes that no overlay appears.
type CorrelationError struct {
	// Code identifies the error category.
	Code CorrelationErrorCode

	// Message is a human-readable description.
	Message string

	// Notification is the raw chat message being correlated.
	Notification string
}

// CorrelationErrorCode categorizes correlation errors.
type CorrelationErrorCode string

const (
	// ErrCodeDisabled indicates the feature is switched off.
	ErrCodeDisabled CorrelationErrorCode = "DISABLED"

	// ErrCodeNotRecognized indicates the message lacks the notification prefix.
	ErrCodeNotRecognized CorrelationErrorCode = "NOT_RECOGNIZED"

	// ErrCodeNoUsageMatch indicates the usage log was empty.
	ErrCodeNoUsageMatch CorrelationErrorCode = "NO_USAGE_MATCH"

	// ErrCodeUnknownAbility indicates the matched item carries no ability.
	ErrCodeUnknownAbility CorrelationErrorCode = "UNKNOWN_ABILITY"

	// ErrCodeMalformedDuration indicates the duration token did not parse.
	ErrCodeMalformedDuration CorrelationErrorCode = "MALFORMED_DURATION"
)

// Error implements the error interface.
func (e *CorrelationError) Error() string {
	if e.Notification != "" {
		return fmt.Sprintf("%s: %s (notification=%q)", e.Code, e.Message, e.Notification)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newCorrelationError(code CorrelationErrorCode, notification, format string, args ...any) *CorrelationError {
	return &CorrelationError{
		Code:         code,
		Message:      fmt.Sprintf(format, args...),
		Notification: notification,
	}
}

// CorrelationCode returns the code of a wrapped CorrelationError, or "".
func CorrelationCode(err error) CorrelationErrorCode {
	var ce *CorrelationError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsMalformed returns true if the notification's duration could not be parsed.
// Uses errors.As to handle wrapped errors.
func IsMalformed(err error) bool {
	return CorrelationCode(err) == ErrCodeMalformedDuration
}

// IsNoMatch returns true if no logged usage or no ability could be matched
// to the notification.
// Uses errors.As to handle wrapped errors.
func IsNoMatch(err error) bool {
	code := CorrelationCode(err)
	return code == ErrCodeNoUsageMatch || code == ErrCodeUnknownAbility
}

// IsIgnored returns true if the message was not a notification this engine
// handles at all (feature disabled or prefix absent).
func IsIgnored(err error) bool {
	code := CorrelationCode(err)
	return code == ErrCodeDisabled || code == ErrCodeNotRecognized
}
