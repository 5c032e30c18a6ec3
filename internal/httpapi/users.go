package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"carparts/catalog-service/internal/models"
	"carparts/catalog-service/internal/roles"
	"carparts/catalog-service/internal/token"
)

// loginRequest is the profile a client may send when logging in. It has no
// role field, so strict decoding rejects one.
type loginRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Image   string `json:"image"`
}

type loginResponse struct {
	Result models.UpdateResult `json:"result"`
	Token  string              `json:"token"`
}

type adminStatusResponse struct {
	Admin bool `json:"admin"`
}

// normalizeEmail is the form an email takes as a store key. The login rate
// limiter keys on the same form, lowercased.
func normalizeEmail(raw string) string {
	return strings.TrimSpace(raw)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := normalizeEmail(r.PathValue("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	var req loginRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	if req.Email != "" && normalizeEmail(req.Email) != email {
		writeError(w, http.StatusBadRequest, "invalid_request", "body email does not match path")
		return
	}

	result, err := h.store.UpsertByEmail(r.Context(), email, models.UserProfile{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
		Image:   strings.TrimSpace(req.Image),
	})
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	tok, err := h.tokens.Issue(email)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Result: result, Token: tok})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	admin, err := h.roles.IsAdmin(r.Context(), normalizeEmail(r.PathValue("email")))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminStatusResponse{Admin: admin})
}

func (h *Handler) handlePromote(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.roles.Promote)
}

func (h *Handler) handleDemote(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.roles.Demote)
}

type roleChange func(ctx context.Context, target string, requester token.Claim) (models.UpdateResult, error)

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, change roleChange) {
	claim, ok := claimFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized access")
		return
	}
	target := normalizeEmail(r.PathValue("email"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	result, err := change(r.Context(), target, claim)
	if err != nil {
		switch {
		case errors.Is(err, roles.ErrForbidden):
			h.logger.WarnContext(r.Context(), "role change denied", "requester", claim.Email, "path", r.URL.Path, "request_id", requestIDFromRequest(r))
			writeError(w, http.StatusForbidden, "forbidden", "forbidden")
		case errors.Is(err, roles.ErrRequesterNotFound):
			h.logger.WarnContext(r.Context(), "role change by unknown requester", "requester", claim.Email, "request_id", requestIDFromRequest(r))
			writeError(w, http.StatusForbidden, "requester_not_found", "requester account not found")
		default:
			h.internalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
