// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-biometric.
//
// go-biometric is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jeremyhahn/go-biometric/pkg/biometric"
	"github.com/jeremyhahn/go-biometric/pkg/blob"
	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
	"github.com/jeremyhahn/go-biometric/pkg/storage"
)

// Handler provides HTTP handlers for biometric ceremony and session
// operations. These handlers can be mounted on any HTTP router.
type Handler struct {
	service *biometric.Service
	logger  *slog.Logger
}

// NewHandler creates a new biometric HTTP handler.
func NewHandler(service *biometric.Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the handler.
func (h *Handler) WithLogger(logger *slog.Logger) *Handler {
	h.logger = logger
	return h
}

// Register handles POST /register
//
// Request body: ceremony create options (user required, everything
// else falls back to site defaults).
// Response: AuthResponse
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var opts ceremony.CreateOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	result, err := h.service.Register(r.Context(), &opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AuthResponse{
		Token:        result.Token,
		CredentialID: result.Credential.ID,
		ExpiresAt:    result.Session.ExpiresAt,
	})
}

// Authenticate handles POST /authenticate
//
// Request body: ceremony get options. An empty body performs an
// assertion against every credential indexed for the default scope.
// Response: AuthResponse
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var opts ceremony.GetOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		// Allow empty body for scope-default assertions.
		opts = ceremony.GetOptions{}
	}

	result, err := h.service.Authenticate(r.Context(), &opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AuthResponse{
		Token:        result.Token,
		CredentialID: result.Credential.ID,
		ExpiresAt:    result.Session.ExpiresAt,
	})
}

// RegisterBegin handles POST /register/begin
//
// Builds creation options for a ceremony that a bridged platform
// adapter will run out of process. Request body: ceremony create
// options. Response: protocol.PublicKeyCredentialCreationOptions.
func (h *Handler) RegisterBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var opts ceremony.CreateOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	built, err := h.service.BeginRegistration(&opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, built)
}

// RegisterFinish handles POST /register/finish
//
// Request body: FinishRequest carrying the adapter's outcome.
// Response: AuthResponse
func (h *Handler) RegisterFinish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var req FinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Result == nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	result, err := h.service.CompleteRegistration(req.Result, req.Scope)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AuthResponse{
		Token:        result.Token,
		CredentialID: result.Credential.ID,
		ExpiresAt:    result.Session.ExpiresAt,
	})
}

// AuthenticateBegin handles POST /authenticate/begin
//
// Builds request options for an assertion that a bridged platform
// adapter will run out of process. An empty body targets the default
// scope. Response: protocol.PublicKeyCredentialRequestOptions.
func (h *Handler) AuthenticateBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var opts ceremony.GetOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		opts = ceremony.GetOptions{}
	}

	built, err := h.service.BeginAuthentication(&opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, built)
}

// AuthenticateFinish handles POST /authenticate/finish
//
// Request body: FinishRequest carrying the adapter's outcome.
// Response: AuthResponse
func (h *Handler) AuthenticateFinish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var req FinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Result == nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	result, err := h.service.CompleteAuthentication(req.Result, req.Scope)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AuthResponse{
		Token:        result.Token,
		CredentialID: result.Credential.ID,
		ExpiresAt:    result.Session.ExpiresAt,
	})
}

// SessionStatus handles GET /session
//
// Response: SessionStatusResponse
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	rec, err := h.service.CurrentSession()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := SessionStatusResponse{Authenticated: rec != nil}
	if rec != nil {
		resp.ExpiresAt = &rec.ExpiresAt
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ExtendSession handles POST /session/extend
//
// Request body: ExtendSessionRequest (optional)
// Response: ExtendSessionResponse
func (h *Handler) ExtendSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var req ExtendSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = ExtendSessionRequest{}
	}
	if req.Seconds < 0 {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "extension must not be negative")
		return
	}

	extended, err := h.service.ExtendSession(time.Duration(req.Seconds) * time.Second)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := ExtendSessionResponse{Extended: extended}
	if extended {
		if rec, err := h.service.CurrentSession(); err == nil && rec != nil {
			resp.ExpiresAt = &rec.ExpiresAt
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /logout
//
// Response: 204 No Content
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	if err := h.service.Logout(); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Credentials handles GET and DELETE /credentials
//
// Query param: scope (optional, defaults to the site relying party)
// Response: CredentialsResponse for GET, 204 for DELETE
func (h *Handler) Credentials(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")

	switch r.Method {
	case http.MethodGet:
		ids, err := h.service.Credentials(scope)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		h.writeJSON(w, http.StatusOK, CredentialsResponse{CredentialIDs: ids})

	case http.MethodDelete:
		var scopes []string
		if scope != "" {
			scopes = []string{scope}
		}
		if err := h.service.RemoveCredentials(scopes...); err != nil {
			h.handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
	}
}

// Available handles GET /available
//
// Response: AvailableResponse
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, AvailableResponse{
		Available: h.service.Available(r.Context()),
	})
}

// CredentialData handles POST, GET and DELETE /credentials/data
//
// Query param: credential_id (required)
// POST body: CredentialDataRequest
// Response: CredentialDataResponse for GET, 204 otherwise
func (h *Handler) CredentialData(w http.ResponseWriter, r *http.Request) {
	credentialID := r.URL.Query().Get("credential_id")
	if credentialID == "" {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "credential_id is required")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req CredentialDataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
			return
		}
		if len(req.Payload) == 0 {
			h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "payload is required")
			return
		}
		encrypt := req.Encrypt == nil || *req.Encrypt
		if err := h.service.StoreCredentialData(credentialID, req.Payload, encrypt); err != nil {
			h.handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodGet:
		var payload json.RawMessage
		if err := h.service.GetCredentialData(credentialID, &payload, true); err != nil {
			h.handleServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, CredentialDataResponse{Payload: payload})

	case http.MethodDelete:
		if err := h.service.DeleteCredentialData(credentialID); err != nil {
			h.handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
	}
}

// handleServiceError maps service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid identifier")
	case errors.Is(err, biometric.ErrNoCredentials):
		h.writeError(w, http.StatusNotFound, ErrorCodeNoCredentials, "no registered credentials")
	case errors.Is(err, biometric.ErrNotAuthenticated):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeNotAuthenticated, "not authenticated")
	case errors.Is(err, blob.ErrNotFound):
		h.writeError(w, http.StatusNotFound, ErrorCodeNotFound, "no data for credential")
	case errors.Is(err, ceremony.ErrUserRequired):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "user is required")
	case errors.Is(err, ceremony.ErrUserCancelled):
		h.writeError(w, http.StatusBadRequest, ErrorCodeCeremonyFailed, "cancelled by user")
	case errors.Is(err, ceremony.ErrTimeout):
		h.writeError(w, http.StatusRequestTimeout, ErrorCodeCeremonyFailed, "ceremony timed out")
	case errors.Is(err, ceremony.ErrLockedOut):
		h.writeError(w, http.StatusLocked, ErrorCodeCeremonyFailed, "authenticator locked out")
	case errors.Is(err, ceremony.ErrInvalidState):
		h.writeError(w, http.StatusConflict, ErrorCodeCeremonyFailed, "invalid authenticator state")
	case errors.Is(err, ceremony.ErrInsecureContext):
		h.writeError(w, http.StatusForbidden, ErrorCodeCeremonyFailed, "insecure context")
	case errors.Is(err, ceremony.ErrNotAvailable), errors.Is(err, ceremony.ErrNotSupported):
		h.writeError(w, http.StatusServiceUnavailable, ErrorCodeCeremonyFailed, "authenticator not available")
	case errors.Is(err, ceremony.ErrFailed):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeCeremonyFailed, "authentication failed")
	default:
		h.writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal server error")
	}
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Response headers already written, can only log the error
		h.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status)
	}
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
