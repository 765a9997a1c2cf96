package api

import (
	"net/http"

	"github.com/MrWong99/voxbook/internal/dictionary"
	"github.com/MrWong99/voxbook/internal/team"
)

// DictionariesResponse is the body of GET /v1/dictionaries.
type DictionariesResponse struct {
	Default   string            `json:"default"`
	Languages []dictionary.Info `json:"languages"`
}

// Dictionaries handles GET /v1/dictionaries.
func (h *Handler) Dictionaries(w http.ResponseWriter, _ *http.Request) {
	s := h.parser.Load().Dictionaries()
	writeJSON(w, http.StatusOK, DictionariesResponse{
		Default:   s.DefaultLanguage(),
		Languages: s.Languages(),
	})
}

// TeamsResponse is the body of GET /v1/teams.
type TeamsResponse struct {
	Teams []team.Team `json:"teams"`
}

// Teams handles GET /v1/teams.
func (h *Handler) Teams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusBadGateway, ErrorResponse{Error: "team roster unavailable", Code: CodeUpstreamFailure})
		return
	}
	if teams == nil {
		teams = []team.Team{}
	}
	writeJSON(w, http.StatusOK, TeamsResponse{Teams: teams})
}
