package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/apperr"
)

// Problem is the JSON error body.
type Problem struct {
	Error   string              `json:"error"`
	Kind    string              `json:"kind"`
	Subject string              `json:"subject,omitempty"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.Validation:  http.StatusBadRequest,
	apperr.NotFound:    http.StatusNotFound,
	apperr.Conflict:    http.StatusConflict,
	apperr.Protected:   http.StatusConflict,
	apperr.CapExceeded: http.StatusUnprocessableEntity,
	apperr.Busy:        http.StatusServiceUnavailable,
	apperr.Store:       http.StatusInternalServerError,
}

// StatusOf maps an error to its HTTP status; unknown errors are 500.
func StatusOf(err error) int {
	if code, ok := statusByKind[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as a Problem. Internal failures are logged and
// their details kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	code := StatusOf(err)
	kind := apperr.KindOf(err)
	p := Problem{Error: err.Error(), Kind: kind.String(), Subject: apperr.SubjectOf(err), Fields: apperr.FieldsOf(err)}
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		p = Problem{Error: http.StatusText(code), Kind: apperr.Store.String()}
	}
	writeJSON(w, code, p)
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syn *json.SyntaxError
		msg := err.Error()
		if errors.As(err, &syn) {
			msg = "malformed JSON"
		}
		return apperr.NewValidation(apperr.ErrInvalidInput, "body", apperr.FieldError{Field: "body", Error: msg})
	}
	return nil
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
