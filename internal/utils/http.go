package utils

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// JSONError writes {"detail": "..."} with a given status.
func JSONError(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"detail": msg})
}

// DecodeJSON parses the JSON body into v and handles invalid JSON. Unknown
// fields are ignored; clients may send extras.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		JSONError(w, http.StatusUnprocessableEntity, "empty request body")
		return http.ErrBodyNotAllowed
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSONError(w, http.StatusUnprocessableEntity, "invalid JSON: "+err.Error())
		return err
	}

	return nil
}
