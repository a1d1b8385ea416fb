/*
Package errs provides the application's coded error type and error code constants.

This file defines the map from error codes to CustomError templates, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// The key is the error code; the value carries the user message and HTTP status.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
