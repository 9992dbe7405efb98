package common

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError writes err using the status derived from HTTPStatusFromError.
// Messages of 5xx errors are not echoed to the client.
func RespondWithDomainError(w http.ResponseWriter, err error) int {
	code := HTTPStatusFromError(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && code != http.StatusBadGateway {
		msg = http.StatusText(code)
	}
	RespondWithError(w, code, msg)
	return code
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
