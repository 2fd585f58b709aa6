// Package httpapi exposes the mediator's HTTP surface (spec.md §6) over
// plain net/http.ServeMux, grounded on cmd/test-server/main.go's
// http.NewServeMux()-based wiring — no router library appears anywhere
// in the example pack, so this is the idiomatic choice rather than a
// stdlib fallback of necessity.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sage-x-project/didmediator/errs"
)

// SuccessResponse is the uniform envelope every route returns
// (spec.md §6).
type SuccessResponse struct {
	SessionID    string      `json:"sessionId,omitempty"`
	HTTPCode     int         `json:"httpCode"`
	ErrorCode    int         `json:"errorCode"`
	ErrorCodeStr string      `json:"errorCodeStr,omitempty"`
	Message      string      `json:"message,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, sessionID string, data interface{}) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		SessionID: sessionID,
		HTTPCode:  http.StatusOK,
		Data:      data,
	})
}

// writeError maps err onto spec.md §7's status table and renders it as
// a SuccessResponse carrying the error fields instead of data. Only the
// top-level Message is exposed to the client — never the wrapped Cause
// chain, which would otherwise leak the specific sub-reason behind a
// coarse AuthFailed (spec.md §4.4: "the same error kind for every
// distinct failure to avoid probing").
func writeError(w http.ResponseWriter, sessionID string, err error) {
	code := errs.InternalError
	message := "internal error"
	if me, ok := err.(*errs.MediatorError); ok {
		code = me.Code
		message = me.Message
	}
	status := errs.HTTPStatus(code)
	writeJSON(w, status, SuccessResponse{
		SessionID:    sessionID,
		HTTPCode:     status,
		ErrorCode:    status,
		ErrorCodeStr: string(code),
		Message:      message,
	})
}
