package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tripnest/catalog/internal/domain"
	"github.com/tripnest/catalog/internal/logger"
	"github.com/tripnest/catalog/internal/pricing"
	"github.com/tripnest/catalog/internal/query"
	"github.com/tripnest/catalog/internal/storage"
)

const maxBodyBytes = 1 << 20

// RecordStore persists listings created through the API.
type RecordStore interface {
	Create(ctx context.Context, d domain.Domain, raw domain.RawRecord) (domain.RawRecord, error)
	Get(ctx context.Context, d domain.Domain, id string) (domain.RawRecord, error)
	Delete(ctx context.Context, d domain.Domain, id string) error
}

type Server struct {
	Engine  *query.Engine
	Source  storage.Source
	Store   RecordStore
	Logger  *slog.Logger
	Limiter *RateLimiter
	// BehindProxy trusts X-Forwarded-For and X-Real-IP for the client address.
	BehindProxy bool
}

func NewServer(engine *query.Engine, source storage.Source, store RecordStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{Engine: engine, Source: source, Store: store, Logger: log}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	if s.BehindProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestID(s.Logger))
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	if s.Limiter != nil {
		r.Use(s.Limiter.Middleware)
	}

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/{domain}", s.handleList)
		r.Post("/{domain}", s.handleCreate)
		r.Get("/{domain}/{id}", s.handleGet)
		r.Delete("/{domain}/{id}", s.handleDelete)
		r.Get("/{domain}/{id}/quote", s.handleQuote)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	d, ok := domainParam(w, r)
	if !ok {
		return
	}
	params, verrs := parseListParams(r.URL.Query())
	if len(verrs) > 0 {
		writeError(w, http.StatusBadRequest, "invalid_query", verrs)
		return
	}

	raws, err := storage.ListHinted(r.Context(), s.Source, d, params.hints())
	if err != nil {
		s.sourceError(w, r, d, err)
		return
	}
	basis := query.PriceBasis(params.PriceBasis)
	desc := s.Engine.Descriptor(d, basis)
	q := params.apply(s.Engine.DefaultQuery(d, basis))
	writeJSON(w, http.StatusOK, s.Engine.Run(raws, q, desc))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := domainParam(w, r)
	if !ok {
		return
	}
	rec, found, err := s.find(r.Context(), d, chi.URLParam(r, "id"))
	if err != nil {
		s.sourceError(w, r, d, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// createListingRequest holds the fields of a new raw record that are checked
// before it is stored. Other fields are stored as sent.
type createListingRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Location      string   `json:"location" validate:"max=200"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	ReviewCount   *int     `json:"reviewCount" validate:"omitempty,gte=0"`
	PricePerNight *float64 `json:"pricePerNight" validate:"omitempty,gte=0"`
	PricePerHour  *float64 `json:"pricePerHour" validate:"omitempty,gte=0"`
	PricePerDay   *float64 `json:"pricePerDay" validate:"omitempty,gte=0"`
	PricePerWeek  *float64 `json:"pricePerWeek" validate:"omitempty,gte=0"`
	Capacity      *int     `json:"capacity" validate:"omitempty,gte=0"`
	StarCategory  *int     `json:"starCategory" validate:"omitempty,gte=1,lte=5"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	d, ok := domainParam(w, r)
	if !ok {
		return
	}
	if s.Store == nil {
		writeError(w, http.StatusMethodNotAllowed, "read_only", nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", nil)
		return
	}
	var raw domain.RawRecord
	var req createListingRequest
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		writeError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", []ValidationError{{Message: err.Error()}})
		return
	}
	if verrs := ValidateStruct(req); len(verrs) > 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", verrs)
		return
	}

	created, err := s.Store.Create(r.Context(), d, raw)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		writeError(w, http.StatusConflict, "already_exists", nil)
		return
	case err != nil:
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "create listing", "domain", d, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusCreated, query.Normalize(created, d))
}

// handleDelete removes a stored listing and returns it as it was last listed.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := domainParam(w, r)
	if !ok {
		return
	}
	if s.Store == nil {
		writeError(w, http.StatusMethodNotAllowed, "read_only", nil)
		return
	}
	id := chi.URLParam(r, "id")

	raw, err := s.Store.Get(r.Context(), d, id)
	if err == nil {
		err = s.Store.Delete(r.Context(), d, id)
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	case err != nil:
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "delete listing", "domain", d, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusOK, query.Normalize(raw, d))
}

type quoteResponse struct {
	VehicleID string `json:"vehicle_id"`
	pricing.Quote
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	d, ok := domainParam(w, r)
	if !ok {
		return
	}
	if d != domain.DomainVehicle {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	var verrs []ValidationError
	pickup := timeParam(r, "pickup", &verrs)
	ret := timeParam(r, "return", &verrs)
	if len(verrs) > 0 {
		writeError(w, http.StatusBadRequest, "invalid_query", verrs)
		return
	}

	rec, found, err := s.find(r.Context(), d, chi.URLParam(r, "id"))
	if err != nil {
		s.sourceError(w, r, d, err)
		return
	}
	if !found || rec.Vehicle == nil {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	q, err := pricing.QuoteVehicle(*rec.Vehicle, pickup, ret)
	if errors.Is(err, pricing.ErrInvalidWindow) {
		writeError(w, http.StatusBadRequest, "invalid_window",
			[]ValidationError{{Field: "return", Message: "return must be after pickup"}})
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{VehicleID: rec.ID, Quote: q})
}

// find looks a record up by its normalized id, so positional ids of records
// without one resolve the same way they do in listings.
func (s *Server) find(ctx context.Context, d domain.Domain, id string) (domain.ListingRecord, bool, error) {
	raws, err := s.Source.List(ctx, d)
	if err != nil {
		return domain.ListingRecord{}, false, err
	}
	for _, rec := range query.NormalizeAll(raws, d) {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return domain.ListingRecord{}, false, nil
}

func (s *Server) sourceError(w http.ResponseWriter, r *http.Request, d domain.Domain, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger.FromContext(r.Context()).ErrorContext(r.Context(), "list source", "domain", d, "error", err)
	writeError(w, http.StatusBadGateway, "source_unavailable", nil)
}

func domainParam(w http.ResponseWriter, r *http.Request) (domain.Domain, bool) {
	d, ok := domain.ParseDomain(chi.URLParam(r, "domain"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_domain", nil)
	}
	return d, ok
}

func timeParam(r *http.Request, key string, verrs *[]ValidationError) time.Time {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		*verrs = append(*verrs, ValidationError{Field: key, Message: key + " is required"})
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		*verrs = append(*verrs, ValidationError{Field: key, Message: key + " must be an RFC 3339 timestamp"})
	}
	return t
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code string, details []ValidationError) {
	writeJSON(w, status, errorResponse{Error: code, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
