package voice

import "errors"

var (
	// ErrMissingAPIKey means the realtime API key was never configured.
	// This is a deployment problem, not a transient one.
	ErrMissingAPIKey = errors.New("realtime api key not configured")

	// ErrConnectionFailed wraps credential-fetch and handshake failures.
	// Fatal for the attempt, retryable for the session.
	ErrConnectionFailed = errors.New("upstream connection failed")

	// ErrInvalidOffer is returned for an empty client SDP offer and maps
	// to a 400 at the HTTP boundary.
	ErrInvalidOffer = errors.New("no SDP provided")
)
