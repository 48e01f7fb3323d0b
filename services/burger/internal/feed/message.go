package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appetiteclub/burger/services/burger/internal/burger"
)

const (
	DefaultFrameError      = "failed to receive orders"
	RefreshRequiredMessage = "authorization refresh required"
	ConnectionErrorMessage = "connection error"

	invalidTokenMarker = "invalid or missing token"
)

// Frame is one inbound feed message.
type Frame struct {
	Success    bool              `json:"success"`
	Orders     []burger.RawOrder `json:"orders"`
	Total      int               `json:"total"`
	TotalToday int               `json:"totalToday"`
	Message    string            `json:"message"`
}

// IsInvalidTokenMessage matches the server's rejection of an expired or
// missing access token, case-insensitively.
func IsInvalidTokenMessage(message string) bool {
	return strings.Contains(strings.ToLower(message), invalidTokenMarker)
}

// Classify turns a raw frame into a state machine event. needsRefresh is set
// when an authenticated feed was rejected for its token; the returned event
// is then the failure to apply before refreshing.
func Classify(raw []byte, requiresAuth bool) (evt Event, needsRefresh bool) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return FailedEvent(fmt.Sprintf("cannot parse feed message: %v", err)), false
	}

	if !frame.Success {
		message := frame.Message
		if message == "" {
			message = DefaultFrameError
		}
		if requiresAuth && IsInvalidTokenMessage(message) {
			return FailedEvent(RefreshRequiredMessage), true
		}
		return FailedEvent(message), false
	}

	return OrdersEvent(frame.Orders, frame.Total, frame.TotalToday), false
}
