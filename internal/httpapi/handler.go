package httpapi

import (
	"encoding/json"
	"errors"
	"expvar"
	"io"
	"log/slog"
	"net/http"

	"carparts/catalog-service/internal/roles"
	"carparts/catalog-service/internal/store"
)

// TokenService issues tokens at login and verifies them on protected routes.
type TokenService interface {
	TokenVerifier
	Issue(email string) (string, error)
}

type Handler struct {
	store  store.Store
	tokens TokenService
	roles  *roles.Manager
	logger *slog.Logger
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(store store.Store, tokens TokenService, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		tokens: tokens,
		roles:  roles.NewManager(store),
		logger: logger,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", expvar.Handler())

	mux.HandleFunc("PUT /user/{email}", h.handleLogin)
	mux.HandleFunc("GET /user", h.handleListUsers)
	mux.HandleFunc("GET /admin/{email}", h.handleAdminStatus)
	mux.Handle("PUT /user/admin/{email}", AuthMiddleware(h.tokens, h.logger, http.HandlerFunc(h.handlePromote)))
	mux.Handle("PUT /user/remove/{email}", AuthMiddleware(h.tokens, h.logger, http.HandlerFunc(h.handleDemote)))

	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("POST /products", h.handleCreateProduct)
	mux.HandleFunc("DELETE /products/{id}", h.handleDeleteProduct)
	mux.HandleFunc("GET /product/{id}", h.handleGetProduct)

	mux.HandleFunc("POST /orders2", h.handleCreateOrder)
	mux.HandleFunc("GET /orders2", h.handleListOrders)
	mux.HandleFunc("GET /orders2/{email}", h.handleListOrdersByEmail)
	mux.HandleFunc("GET /orders2/byid/{id}", h.handleGetOrder)
	mux.HandleFunc("DELETE /order-delete", h.handleDeleteOrder)

	mux.HandleFunc("GET /reviews", h.handleListReviews)
	mux.HandleFunc("POST /reviews", h.handleCreateReview)
	return withErrorEnvelope(mux)
}

// withErrorEnvelope lets the mux decide between 404 and 405 for requests no
// route claims, then answers in the error envelope instead of plain text.
func withErrorEnvelope(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}
		rec := &statusOnlyWriter{header: make(http.Header)}
		mux.ServeHTTP(rec, r)
		if rec.status == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", rec.header.Get("Allow"))
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeError(w, http.StatusNotFound, "not_found", "not found")
	})
}

// statusOnlyWriter keeps the status and headers of a response and drops the body.
type statusOnlyWriter struct {
	header http.Header
	status int
}

func (w *statusOnlyWriter) Header() http.Header { return w.header }

func (w *statusOnlyWriter) Write(b []byte) (int, error) { return len(b), nil }

func (w *statusOnlyWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "This is Homepage")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeStoreError maps store failures onto the error envelope. Anything
// unrecognised is logged and reported as a generic 500.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid id")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestIDFromRequest(r),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

// decodeOptional is decodeRequest for routes where an empty body is valid.
func decodeOptional(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
