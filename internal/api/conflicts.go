package api

import (
	"net/http"

	"github.com/MrWong99/voxbook/internal/conflict"
	"github.com/MrWong99/voxbook/pkg/types"
)

// ConflictRequest is the body of POST /v1/conflicts.
type ConflictRequest struct {
	Candidate types.BookingCandidate `json:"candidate" validate:"required"`

	// Existing is the snapshot to check against. When absent the team's
	// bookings are fetched from the booking store.
	Existing []types.ExistingBooking `json:"existing,omitempty"`
}

// ConflictResponse is the body of a successful POST /v1/conflicts.
type ConflictResponse struct {
	conflict.Result
	Message string `json:"message,omitempty"`
}

// Conflicts handles POST /v1/conflicts.
func (h *Handler) Conflicts(w http.ResponseWriter, r *http.Request) {
	var req ConflictRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := req.Candidate.Range(h.detector.Load().Location()); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "candidate has no valid time range",
			Code:    CodeInvalidTimeRange,
			Details: []string{err.Error()},
		})
		return
	}
	if req.Existing == nil && h.bookings == nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{
			Error: "no existing bookings given and no booking store configured",
			Code:  CodeNoBookingSource,
		})
		return
	}

	res, err := h.check(r.Context(), req.Candidate, req.Existing)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, ErrorResponse{Error: "booking snapshot unavailable", Code: CodeUpstreamFailure})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
