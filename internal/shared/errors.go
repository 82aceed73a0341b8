package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Reference errors
	ErrInvalidReference = fmt.Errorf("invalid media reference")

	// Provider errors
	ErrProvider = fmt.Errorf("provider request failed")

	// Consistency errors
	ErrInconsistentCache = fmt.Errorf("download cache is inconsistent")

	// Queue and playback state errors
	ErrEmptyQueue        = fmt.Errorf("queue is empty")
	ErrNotInQueue        = fmt.Errorf("song not found in queue")
	ErrInvalidSongNumber = fmt.Errorf("invalid song number")
	ErrInvalidVolume     = fmt.Errorf("volume must be between 0%% and 100%%")
	ErrNotPlaying        = fmt.Errorf("no song is currently playing")
	ErrAlreadyPlaying    = fmt.Errorf("already playing")
	ErrAlreadyMuted      = fmt.Errorf("already muted")
	ErrAlreadyUnmuted    = fmt.Errorf("already unmuted")
	ErrMaxVolume         = fmt.Errorf("volume is already at maximum")
	ErrMinVolume         = fmt.Errorf("volume is already at minimum")
	ErrNoRandomSongs     = fmt.Errorf("no random songs available")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ProviderError wraps every failure of the media provider.
//
// It always matches [ErrProvider] with [errors.Is] and keeps the provider's own message.
type ProviderError struct {
	Op  string // resolve, download, playlist, search
	Ref string // reference or query the call was made with
	Err error
}

// NewProviderError wraps err, returning it unchanged when it is already a [ProviderError].
func NewProviderError(op, ref string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Ref: ref, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("error during %s of %s: %v", e.Op, e.Ref, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }
