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

// Package http provides composable HTTP handlers for biometric
// ceremony and session operations.
//
// This package allows applications to expose biometric registration,
// authentication, session management, and per-credential data storage
// over their existing HTTP servers.
//
// # Usage
//
// Create a handler from a biometric service and mount it on your router:
//
//	svc, _ := biometric.NewService(...)
//	handler := biometrichttp.NewHandler(svc)
//
//	// For chi router:
//	r.Route("/api/v1/biometric", func(r chi.Router) {
//	    biometrichttp.MountChi(r, handler)
//	})
//
//	// For stdlib http.ServeMux:
//	biometrichttp.MountStdlib(mux, "/api/v1/biometric", handler)
//
// # Endpoints
//
// The handler provides the following endpoints:
//
//	POST   /register          - perform a registration ceremony
//	POST   /authenticate      - perform an assertion ceremony
//	GET    /session           - report session status
//	POST   /session/extend    - extend the active session
//	POST   /logout            - remove the active session
//	GET    /credentials       - list indexed credential IDs
//	DELETE /credentials       - clear the credential index
//	POST   /credentials/data  - store per-credential data
//	GET    /credentials/data  - load per-credential data
//	DELETE /credentials/data  - delete per-credential data
//	GET    /available         - report authenticator availability
package http
