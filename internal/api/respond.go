package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrWong99/voxbook/internal/observe"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_FAILED"
	CodeEmptyTranscript  = "EMPTY_TRANSCRIPT"
	CodeNoBookingSource  = "NO_BOOKING_SOURCE"
	CodeUpstreamFailure  = "UPSTREAM_FAILURE"
	CodeInvalidTimeRange = "INVALID_TIME_RANGE"
)

// decode reads a JSON body into v and validates it. On failure it writes the
// error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{
			Error: "malformed request body",
			Code:  CodeBadRequest,
			Details: []string{
				err.Error(),
			},
		})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "request validation failed",
			Code:    CodeValidation,
			Details: validationDetails(err),
		})
		return false
	}
	return true
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		msg := fmt.Sprintf("%s: failed %q", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s: failed %q (%s)", field, fe.Tag(), fe.Param())
		}
		out = append(out, msg)
	}
	return out
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	observe.Logger(r.Context()).Warn("api: request failed",
		"path", r.URL.Path,
		"status", status,
		"code", body.Code,
		"err", body.Error,
	)
	writeJSON(w, status, body)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
