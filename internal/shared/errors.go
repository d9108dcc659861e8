package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Workflow errors
	ErrInFlight      = fmt.Errorf("operation already in flight")
	ErrStaleResponse = fmt.Errorf("response superseded by a newer request")

	// Playback errors
	ErrMediaUnresolvable = fmt.Errorf("track has no playable source")
	ErrAudioUnavailable  = fmt.Errorf("audio output unavailable in this build")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
