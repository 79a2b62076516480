package booking

import "errors"

// Reason codes surfaced to callers alongside a human-readable message.
const (
	CodeOutsideWorkingHours    = "OUTSIDE_WORKING_HOURS"
	CodeSlotTaken              = "SLOT_TAKEN"
	CodeStylistInactive        = "STYLIST_INACTIVE"
	CodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
)

// RuleError is a business-rule rejection. It is reported with its code and
// never partially applied: commands that fail with a RuleError leave all
// state untouched.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Code + ": " + e.Message
}

func ruleErr(code, message string) *RuleError {
	return &RuleError{Code: code, Message: message}
}

// AsRuleError unwraps err into a RuleError if it is one.
func AsRuleError(err error) (*RuleError, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrLockTimeout is returned when the per-stylist-day lock cannot be
// acquired within the command's bounded wait. Callers may retry.
var ErrLockTimeout = errors.New("stylist day lock timeout")
