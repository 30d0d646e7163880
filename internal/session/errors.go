package session

import "errors"

var (
	// ErrTurnInFlight is returned by SendMessage while another turn is running.
	ErrTurnInFlight = errors.New("a message is already being sent")

	// ErrSuperseded is returned by SendMessage when ClearChat or
	// RestoreSession replaced the session while the turn was running.
	// The turn made no further state changes.
	ErrSuperseded = errors.New("turn superseded")
)

// streamErrorMessage is used for error frames without a message.
const streamErrorMessage = "Stream error"

// routeErrorMessage is reported to the route sink when projection fails.
const routeErrorMessage = "Failed to load flight route"
