// Package api serves the JSON HTTP API the booking form uses:
//
//	POST /v1/parse        parse an utterance into a booking draft
//	POST /v1/conflicts    check a candidate against existing bookings
//	GET  /v1/dictionaries list the available languages
//	GET  /v1/teams        list the bookable teams
//
// Request bodies are validated with go-playground/validator; failures are
// reported as 400 responses listing every invalid field.
package api

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/MrWong99/voxbook/internal/bookingstore"
	"github.com/MrWong99/voxbook/internal/conflict"
	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/team"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Config wires a [Handler] to the pipeline.
type Config struct {
	// Parser runs the intake pipeline. Required.
	Parser *intake.Parser

	// Detector checks conflicts. Default: a detector in the parser's
	// location.
	Detector *conflict.Detector

	// Teams is the roster source used when a request carries no roster.
	// Required.
	Teams team.Store

	// Bookings supplies existing bookings when a conflict request does not
	// carry them. Nil disables lookups; such requests fail with 400.
	Bookings bookingstore.Store

	// Validate validates request bodies. Default: [NewValidator].
	Validate *validator.Validate
}

// Handler serves the /v1 API. It is safe for concurrent use.
type Handler struct {
	parser   atomic.Pointer[intake.Parser]
	detector atomic.Pointer[conflict.Detector]
	teams    team.Store
	bookings bookingstore.Store
	validate *validator.Validate
}

// New returns a Handler for cfg.
func New(cfg Config) (*Handler, error) {
	var errs []error
	if cfg.Parser == nil {
		errs = append(errs, errors.New("api: parser is required"))
	}
	if cfg.Teams == nil {
		errs = append(errs, errors.New("api: team store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	h := &Handler{
		teams:    cfg.Teams,
		bookings: cfg.Bookings,
		validate: cfg.Validate,
	}
	if h.validate == nil {
		h.validate = NewValidator()
	}
	h.SetParser(cfg.Parser, cfg.Detector)
	return h, nil
}

// SetParser swaps the pipeline used by subsequent requests. A nil detector
// is replaced by one in the parser's location.
func (h *Handler) SetParser(p *intake.Parser, d *conflict.Detector) {
	if d == nil {
		d = conflict.New(conflict.WithLocation(p.Location()))
	}
	h.parser.Store(p)
	h.detector.Store(d)
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/parse", h.Parse)
	mux.HandleFunc("POST /v1/conflicts", h.Conflicts)
	mux.HandleFunc("GET /v1/dictionaries", h.Dictionaries)
	mux.HandleFunc("GET /v1/teams", h.Teams)
}
