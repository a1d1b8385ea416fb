/*
Package errs provides the application's coded error type and error code constants.

These codes identify specific request or relay failures both internally and in
responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
