/*
Package resp provides helper functions for sending HTTP JSON responses.

Success payloads on the REST surface are sent as bare JSON so that the
presentation layer can consume them directly; errors use a unified
code/message envelope.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
)

// ErrorResponse is the envelope returned to clients for failed requests.
type ErrorResponse struct {
	// Code is the business error code (see the errs package).
	Code int `json:"code"`

	// Message is the client-friendly error description.
	Message string `json:"message"`
}

// RespondJSON sets the Content-Type and writes the JSON-encoded payload.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondError sends an HTTP response containing the error code and message.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	res := ErrorResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	}
	RespondJSON(w, r, customErr.Status, res)
}
