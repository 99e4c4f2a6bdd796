package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/validation"
)

const maxBodyBytes = 64 << 10

// errorBody is the JSON shape of every failed request. Run is set for signup
// routes so the client can redraw the wizard with the field messages.
type errorBody struct {
	Error *errors.StandardError `json:"error"`
	Run   interface{}           `json:"run,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, log logger.Logger, err error, run interface{}) {
	std := errors.AsStandard(err)
	status := errors.HTTPStatus(std.Code)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", map[string]interface{}{
			"errorCode": string(std.Code),
			"details":   std.Details,
		})
	}
	if secs, ok := std.Metadata["retryAfterSeconds"].(int); ok && secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, status, errorBody{Error: std, Run: run})
}

// decode checks the body against schema and then unmarshals it into dst.
func decode(w http.ResponseWriter, r *http.Request, schema *validation.Schema, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewValidationError(map[string]string{"body": "request body could not be read"})
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	res, err := schema.ValidateJSON(body)
	if err != nil {
		return errors.NewValidationError(map[string]string{"body": "request body must be a JSON document"})
	}
	if !res.Valid {
		return errors.NewValidationError(res.Fields())
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.NewValidationError(map[string]string{"body": err.Error()})
	}
	return nil
}
