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
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountChi mounts biometric routes on a chi router.
//
// Example:
//
//	handler := biometrichttp.NewHandler(svc)
//	r.Route("/api/v1/biometric", func(r chi.Router) {
//	    biometrichttp.MountChi(r, handler)
//	})
func MountChi(r chi.Router, h *Handler) {
	r.Post("/register", h.Register)
	r.Post("/register/begin", h.RegisterBegin)
	r.Post("/register/finish", h.RegisterFinish)
	r.Post("/authenticate", h.Authenticate)
	r.Post("/authenticate/begin", h.AuthenticateBegin)
	r.Post("/authenticate/finish", h.AuthenticateFinish)
	r.Get("/session", h.SessionStatus)
	r.Post("/session/extend", h.ExtendSession)
	r.Post("/logout", h.Logout)
	r.Get("/credentials", h.Credentials)
	r.Delete("/credentials", h.Credentials)
	r.Post("/credentials/data", h.CredentialData)
	r.Get("/credentials/data", h.CredentialData)
	r.Delete("/credentials/data", h.CredentialData)
	r.Get("/available", h.Available)
}

// MountStdlib mounts biometric routes on a stdlib http.ServeMux.
// The prefix should not include a trailing slash. Method checking is
// done in the handlers.
//
// Example:
//
//	handler := biometrichttp.NewHandler(svc)
//	biometrichttp.MountStdlib(mux, "/api/v1/biometric", handler)
func MountStdlib(mux *http.ServeMux, prefix string, h *Handler) {
	mux.HandleFunc(prefix+"/register", h.Register)
	mux.HandleFunc(prefix+"/register/begin", h.RegisterBegin)
	mux.HandleFunc(prefix+"/register/finish", h.RegisterFinish)
	mux.HandleFunc(prefix+"/authenticate", h.Authenticate)
	mux.HandleFunc(prefix+"/authenticate/begin", h.AuthenticateBegin)
	mux.HandleFunc(prefix+"/authenticate/finish", h.AuthenticateFinish)
	mux.HandleFunc(prefix+"/session", h.SessionStatus)
	mux.HandleFunc(prefix+"/session/extend", h.ExtendSession)
	mux.HandleFunc(prefix+"/logout", h.Logout)
	mux.HandleFunc(prefix+"/credentials", h.Credentials)
	mux.HandleFunc(prefix+"/credentials/data", h.CredentialData)
	mux.HandleFunc(prefix+"/available", h.Available)
}

// RouteEntry represents a single route with its method, path, and handler.
type RouteEntry struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Routes returns a slice of route entries for manual mounting.
// Useful for frameworks not directly supported.
func (h *Handler) Routes() []RouteEntry {
	return []RouteEntry{
		{Method: "POST", Path: "/register", Handler: h.Register},
		{Method: "POST", Path: "/register/begin", Handler: h.RegisterBegin},
		{Method: "POST", Path: "/register/finish", Handler: h.RegisterFinish},
		{Method: "POST", Path: "/authenticate", Handler: h.Authenticate},
		{Method: "POST", Path: "/authenticate/begin", Handler: h.AuthenticateBegin},
		{Method: "POST", Path: "/authenticate/finish", Handler: h.AuthenticateFinish},
		{Method: "GET", Path: "/session", Handler: h.SessionStatus},
		{Method: "POST", Path: "/session/extend", Handler: h.ExtendSession},
		{Method: "POST", Path: "/logout", Handler: h.Logout},
		{Method: "GET", Path: "/credentials", Handler: h.Credentials},
		{Method: "DELETE", Path: "/credentials", Handler: h.Credentials},
		{Method: "POST", Path: "/credentials/data", Handler: h.CredentialData},
		{Method: "GET", Path: "/credentials/data", Handler: h.CredentialData},
		{Method: "DELETE", Path: "/credentials/data", Handler: h.CredentialData},
		{Method: "GET", Path: "/available", Handler: h.Available},
	}
}
