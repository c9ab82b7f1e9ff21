package httputil

import (
	"encoding/json"
	"net/http"
)

const rfc7231 = "https://datatracker.ietf.org/doc/html/rfc7231#section-"

// problemTypes maps the statuses this API emits to RFC 7807 type URIs
var problemTypes = map[int]string{
	http.StatusBadRequest:            rfc7231 + "6.5.1",
	http.StatusForbidden:             rfc7231 + "6.5.3",
	http.StatusNotFound:              rfc7231 + "6.5.4",
	http.StatusRequestEntityTooLarge: rfc7231 + "6.5.11",
	http.StatusInternalServerError:   rfc7231 + "6.6.1",
	http.StatusServiceUnavailable:    rfc7231 + "6.6.4",
}

// RespondJSON marshals data before writing headers so an encoding failure
// becomes a clean 500 rather than a truncated body.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail is the RFC 7807 error body
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// RespondError writes an RFC 7807 problem with the given status and detail
func RespondError(w http.ResponseWriter, status int, detail string) {
	problemType, ok := problemTypes[status]
	if !ok {
		problemType = "about:blank"
	}
	writeProblem(w, ProblemDetail{
		Type:   problemType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// RespondUnauthenticated writes a 403 with a Bearer challenge.
// Credential failures use 403, not 401.
func RespondUnauthenticated(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	RespondError(w, http.StatusForbidden, detail)
}

func writeProblem(w http.ResponseWriter, problem ProblemDetail) {
	payload, err := json.Marshal(problem)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	w.Write(payload)
}
