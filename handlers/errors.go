// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/middleware"
)

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	switch ledger.Classify(err) {
	case ledger.CategoryValidation:
		return http.StatusBadRequest
	case ledger.CategoryAuthorization:
		return http.StatusForbidden
	case ledger.CategoryNotFound:
		return http.StatusNotFound
	case ledger.CategoryEligibility:
		return http.StatusConflict
	case ledger.CategoryQuorum:
		return http.StatusUnprocessableEntity
	case ledger.CategoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports an engine error. Unavailable and unknown errors are
// logged and their detail is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		slog.Error("storage unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "1")
		msg = "Service temporarily unavailable"
	case http.StatusInternalServerError:
		slog.Error("unexpected error", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "Internal error"
	}
	middleware.CodedErrorResponse(w, status, ledger.Code(err), msg)
}
