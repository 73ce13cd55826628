// internal/api/respond.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	commonerrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/validation"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes {error, code}. Internal faults carry no detail.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := commonerrors.AsStandardError(err)
	status := commonerrors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"path":      r.URL.Path,
		"status":    status,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", fields)
	} else {
		s.log.Warn("Request rejected", fields)
	}

	if stdErr.Code == commonerrors.ErrCodeInternal {
		respondJSON(w, status, map[string]string{"error": "Internal server error"})
		return
	}

	body := map[string]string{
		"error": stdErr.Message,
		"code":  string(stdErr.Code),
	}
	if stdErr.Code == commonerrors.ErrCodeInvalidRequest && stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	respondJSON(w, status, body)
}

// decodeBody validates the JSON body against schema and decodes it into
// dst. An empty body is treated as {} when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *validation.Schema, dst any, allowEmpty bool) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return commonerrors.NewInvalidRequestError("Request body too large", err.Error())
		}
		return commonerrors.NewInvalidRequestError("Invalid request body", err.Error())
	}
	if len(raw) == 0 && allowEmpty {
		raw = []byte("{}")
	}

	result, err := schema.ValidateBytes(raw)
	if err != nil {
		return commonerrors.NewInvalidRequestError("Invalid request body", err.Error())
	}
	if !result.Valid {
		if result.HasErrors("sessionId") {
			return commonerrors.NewMissingSessionIDError()
		}
		return commonerrors.NewInvalidRequestError("Invalid request body", result.Summary())
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return commonerrors.NewInvalidRequestError("Invalid request body", err.Error())
	}
	return nil
}
