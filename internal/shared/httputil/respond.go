// Package httputil holds the JSON response helpers shared by every API
// handler.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds request bodies decoded by DecodeJSON
const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

// WriteError renders err as {error, code, details}. Errors that are not
// AppErrors are logged and hidden behind a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		log.Error().Err(err).Msg("unhandled error")
		appErr = errors.Internal(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error().Err(appErr.Err).Str("code", appErr.Code).Msg(appErr.Message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   appErr.Message,
		"code":    appErr.Code,
		"details": appErr.Details,
	})
}

// DecodeJSON reads the request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func DecodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF && allowEmpty {
			return nil
		}
		return errors.BadRequest("invalid request body")
	}
	return nil
}
