package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Error string   `json:"error"`
	Rules []string `json:"rules,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// writeError maps err onto a status code and error body. Errors outside the
// apperr taxonomy are logged and reported as internal errors.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		LoggerFrom(r.Context()).Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if e.Kind == apperr.KindConstraintViolation {
		LoggerFrom(r.Context()).Warn("constraint violation", "error", err)
	}
	jsonResponse(w, e.HTTPCode(), errorBody{Error: e.Message, Rules: e.Rules})
}

// decodeJSON decodes a JSON request body into target. Unknown fields, such as
// a client-supplied owner, are ignored. A value of the wrong type is reported
// as a <field>_invalid rule.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.KindValidationFailed, "request body too large", err)
		}
		e := apperr.Wrap(apperr.KindValidationFailed, "invalid request body", err)
		if field := invalidField(err); field != "" {
			e.Rules = []string{field + "_invalid"}
		}
		return e
	}
	return nil
}

// invalidField names the request field a decode error belongs to, or "" when
// the body itself is malformed.
func invalidField(err error) string {
	if errors.Is(err, model.ErrInvalidPrice) {
		return "price"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		path := strings.Split(typeErr.Field, ".")
		return path[len(path)-1]
	}
	return ""
}

// pathID parses the {id} path parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("record")
	}
	return id, nil
}

func deleted(w http.ResponseWriter, entity string) {
	jsonResponse(w, http.StatusOK, map[string]string{"message": entity + " deleted"})
}
