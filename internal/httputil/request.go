package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"chatprojects/internal/config"
	"chatprojects/internal/domain/models"
)

// MaxBodyBytes bounds request bodies. Message content is limited in runes,
// and a client may send each one as a 6-byte \uXXXX escape; 64KB covers the
// rest of the envelope.
const MaxBodyBytes = 6*config.MaxMessageContentLength + 64<<10

// ParseJSON decodes JSON from the request body into the given destination.
// It limits the request body size to prevent abuse and provides clear error messages.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// RespondBodyError reports a ParseJSON or ParseCredentials failure: 413 naming
// the limit when the body was too large, 400 otherwise
func RespondBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	RespondError(w, http.StatusBadRequest, "Invalid request body")
}

// Credentials is the login payload, accepted as JSON or as an OAuth2 password form
type Credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login returns the email, falling back to the form's username field
func (c Credentials) Login() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Username
}

// ParseCredentials reads login credentials from a form or JSON body
func ParseCredentials(w http.ResponseWriter, r *http.Request) (Credentials, error) {
	var creds Credentials

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return creds, fmt.Errorf("invalid form: %w", err)
		}
		creds.Username = r.PostFormValue("username")
		creds.Password = r.PostFormValue("password")
	default:
		if err := ParseJSON(w, r, &creds); err != nil {
			return creds, err
		}
	}

	if creds.Login() == "" || creds.Password == "" {
		return creds, fmt.Errorf("username and password are required")
	}
	return creds, nil
}

// ParsePage reads skip/limit query params. limit defaults to 100 and is capped at 1000.
func ParsePage(r *http.Request) (models.Page, error) {
	page := models.Page{Skip: 0, Limit: config.DefaultPageLimit}
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return page, fmt.Errorf("skip must be a non-negative integer")
		}
		page.Skip = skip
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, fmt.Errorf("limit must be a positive integer")
		}
		page.Limit = min(limit, config.MaxPageLimit)
	}

	return page, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
