package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"drivent/internal/adapters/observability"
	"drivent/internal/domain"
)

// HotelFinder is the gated hotel read API.
type HotelFinder interface {
	FindHotels(ctx context.Context, userID int64) ([]domain.Hotel, error)
	FindHotelByID(ctx context.Context, userID, hotelID int64) (domain.HotelWithRooms, error)
}

type Handlers struct {
	Hotels HotelFinder
	Auth   *Authenticator
	Limit  *RateLimiter // nil disables
	Health func(ctx context.Context) error
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type hotelPath struct {
	ID int64 `validate:"required,gt=0"`
}

var validate = validator.New()

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.healthz)
	s.mux.Group(func(r chi.Router) {
		r.Use(h.Auth.Middleware)
		if h.Limit != nil {
			r.Use(h.Limit.Middleware)
		}
		r.Get("/hotels", h.listHotels)
		r.Get("/hotels/{hotelId}", h.getHotel)
	})
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "store unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DenialError
	switch {
	case errors.As(err, &de) && errors.Is(err, domain.ErrPaymentRequired):
		writeProblem(w, http.StatusPaymentRequired, "Payment Required", de.Reason)
	case errors.As(err, &de):
		writeProblem(w, http.StatusNotFound, "Not Found", de.Reason)
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
	default:
		log.Error().Err(err).Str("route", routePattern(r)).Msg("hotel request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// observeDecision counts eligibility outcomes. A missing hotel still means the user was eligible.
func observeDecision(err error) {
	var de *domain.DenialError
	switch {
	case errors.As(err, &de):
		observability.ObserveEligibility(de.Outcome().String(), string(de.Stage))
	case err == nil || errors.Is(err, domain.ErrNotFound):
		observability.ObserveEligibility(domain.Eligible.String(), "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFrom(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	hotels, err := h.Hotels.FindHotels(r.Context(), userID)
	observeDecision(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, hotels)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFrom(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "hotelId"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "hotelId must be a number")
		return
	}
	if err := validate.Struct(hotelPath{ID: id}); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "hotelId must be positive")
		return
	}

	hotel, err := h.Hotels.FindHotelByID(r.Context(), userID, id)
	observeDecision(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, hotel)
}
