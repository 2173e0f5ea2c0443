package payment

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/fuego/backoffice/metrics"
)

// AllowedHeaders are the request headers browsers may send cross-origin.
var AllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// Handler serves the create-checkout function.
type Handler struct {
	Provider Provider
	Currency string
	Validate *validator.Validate
	Metrics  *metrics.Metrics
}

func NewHandler(p Provider, currency string, m *metrics.Metrics) *Handler {
	return &Handler{
		Provider: p,
		Currency: currency,
		Validate: validator.New(),
		Metrics:  m,
	}
}

// Routes mounts the function with permissive CORS on every method,
// including the preflight, which answers "ok".
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"POST", "OPTIONS"},
		AllowedHeaders:     AllowedHeaders,
		OptionsPassthrough: true,
	}))
	r.Use(permissiveHeaders)
	r.Options("/", h.Preflight)
	r.Post("/", h.CreateCheckout)
	return r
}

// permissiveHeaders fills in the CORS headers cors.Handler leaves out when a
// request carries no Origin header.
func permissiveHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		if hdr.Get("Access-Control-Allow-Origin") == "" {
			hdr.Set("Access-Control-Allow-Origin", "*")
		}
		hdr.Set("Access-Control-Allow-Headers", strings.Join(AllowedHeaders, ", "))
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// CreateCheckout answers {"url": ...} or 400 {"error": ...}.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		h.fail(w, err)
		return
	}

	log.Printf("[Checkout] Starting checkout for order %s", req.OrderID)

	session, err := NewSession(req, h.Currency)
	if err != nil {
		h.fail(w, err)
		return
	}

	url, err := h.Provider.CreateSession(r.Context(), session)
	h.Metrics.Checkout(h.Provider.Name(), err)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	log.Printf("[Checkout] Error: %v", err)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
