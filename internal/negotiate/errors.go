package negotiate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCommonFormat means the two sides share no format.
	ErrNoCommonFormat = errors.New("no common format")

	// ErrNotFixable means the common formats cannot be reduced to a single
	// format, which happens when both sides accept ANY.
	ErrNotFixable = errors.New("common caps cannot be fixated")
)

// NegotiationError describes a failed negotiation with the caps involved.
type NegotiationError struct {
	SessionID  string
	Upstream   string
	Downstream string
	Filter     string
	Err        error
}

func (e *NegotiationError) Error() string {
	msg := fmt.Sprintf("negotiation %s failed: %v (upstream %q, downstream %q", e.SessionID, e.Err, e.Upstream, e.Downstream)
	if e.Filter != "" {
		msg += fmt.Sprintf(", filter %q", e.Filter)
	}
	return msg + ")"
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

// IsNoCommonFormat reports whether err is a failed negotiation because the
// sides share no format.
func IsNoCommonFormat(err error) bool {
	return errors.Is(err, ErrNoCommonFormat)
}
