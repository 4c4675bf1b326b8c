package actionerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingParameter  = errors.New("missing parameter")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrActionDisabled    = errors.New("action disabled")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrTargetResolution  = errors.New("target resolution failed")
)

const (
	KindMissingParameter  = "missing_parameter"
	KindInvalidParameter  = "invalid_parameter"
	KindActionDisabled    = "action_disabled"
	KindUnsupportedAction = "unsupported_action"
	KindTargetResolution  = "target_resolution"
	KindProtocol          = "protocol"
)

// MissingParameterError reports a required field that is absent or blank.
type MissingParameterError struct {
	Field string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s required", e.Field)
}

func (e *MissingParameterError) Unwrap() error {
	return ErrMissingParameter
}

// InvalidParameterError reports a field that is present but malformed.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if strings.TrimSpace(e.Reason) == "" {
		return fmt.Sprintf("%s is invalid", e.Field)
	}
	return fmt.Sprintf("%s is invalid: %s", e.Field, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

type ActionDisabledError struct {
	Category string
}

func (e *ActionDisabledError) Error() string {
	return fmt.Sprintf("matrix %s actions are disabled", e.Category)
}

func (e *ActionDisabledError) Unwrap() error {
	return ErrActionDisabled
}

type UnsupportedActionError struct {
	Verb string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported matrix action: %s", e.Verb)
}

func (e *UnsupportedActionError) Unwrap() error {
	return ErrUnsupportedAction
}

type TargetResolutionError struct {
	RoomID string
}

func (e *TargetResolutionError) Error() string {
	return fmt.Sprintf("no message to act on in %s; supply an explicit messageId", e.RoomID)
}

func (e *TargetResolutionError) Unwrap() error {
	return ErrTargetResolution
}

// ReactionError is returned when adding one emoji of a multi-emoji reaction
// fails. Added holds the emojis that were applied before the failure; they are
// not rolled back.
type ReactionError struct {
	Added []string
	Emoji string
	Err   error
}

func (e *ReactionError) Error() string {
	if len(e.Added) == 0 {
		return fmt.Sprintf("react with %s: %v", e.Emoji, e.Err)
	}
	return fmt.Sprintf("react with %s after adding %s: %v", e.Emoji, strings.Join(e.Added, ","), e.Err)
}

func (e *ReactionError) Unwrap() error {
	return e.Err
}

// Kind classifies err for transports and audit records. Anything outside the
// validation taxonomy is reported as a protocol failure.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingParameter):
		return KindMissingParameter
	case errors.Is(err, ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, ErrActionDisabled):
		return KindActionDisabled
	case errors.Is(err, ErrUnsupportedAction):
		return KindUnsupportedAction
	case errors.Is(err, ErrTargetResolution):
		return KindTargetResolution
	default:
		return KindProtocol
	}
}

// Added returns the partially applied emojis carried by err, if any.
func Added(err error) ([]string, bool) {
	var reactionErr *ReactionError
	if !errors.As(err, &reactionErr) {
		return nil, false
	}
	return reactionErr.Added, true
}
