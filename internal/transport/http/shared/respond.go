// Package shared centralizes JSON response writing so every handler emits
// the same envelopes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "rolodex/pkg/domain-errors"
)

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. Validation
// errors render their field -> reasons mapping as the body; everything else
// renders {"error": message}. Non-domain errors become opaque 500s.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		de = dErrors.New(dErrors.CodeInternal, "internal server error")
	}
	status := dErrors.HTTPStatus(de.Code)
	if de.Fields != nil {
		WriteJSON(w, status, de.Fields)
		return
	}
	WriteJSON(w, status, map[string]string{"error": de.Message})
}
