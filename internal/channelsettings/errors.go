package channelsettings

import "errors"

// Sentinel errors for the settings service. HTTP handlers map these to
// status codes instead of matching message text.
var (
	ErrChannelNotFound   = errors.New("channel not found")
	ErrActiveDownloads   = errors.New("Cannot change subfolder while downloads are in progress for this channel")
	ErrDestinationExists = errors.New("destination folder already exists")
	ErrEmptyUpdate       = errors.New("no settings provided")
)

// ValidationError reports a rejected settings field. The message is the
// user-facing text.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MoveError reports a failed channel folder relocation. Its message is
// displayed to API clients verbatim.
type MoveError struct {
	Err error
}

func (e *MoveError) Error() string { return "Failed to move channel folder: " + e.Err.Error() }

func (e *MoveError) Unwrap() error { return e.Err }
