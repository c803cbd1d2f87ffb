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

package biometric

import (
	"fmt"

	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
)

// AdapterError is the failure shape reported by bridged platform
// adapters. Code values follow the ceremony error code set.
type AdapterError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// AdapterResult is the unified result shape reported by bridged
// platform adapters: either Success with a credential, or an error.
type AdapterResult struct {
	Success    bool                 `json:"success"`
	Error      *AdapterError        `json:"error,omitempty"`
	Credential *ceremony.Credential `json:"credential,omitempty"`
}

// Resolve collapses an adapter result into Go calling conventions. A
// failed result maps onto the ceremony error taxonomy by code; a
// successful result must carry a credential.
func (r *AdapterResult) Resolve() (*ceremony.Credential, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil adapter result", ceremony.ErrFailed)
	}
	if !r.Success {
		code, message := "", ""
		if r.Error != nil {
			code = r.Error.Code
			message = r.Error.Message
		}
		base := ceremony.MapCode(code)
		if message != "" {
			return nil, fmt.Errorf("%w: %s", base, message)
		}
		return nil, base
	}
	if r.Credential == nil || r.Credential.ID == "" {
		return nil, fmt.Errorf("%w: adapter reported success without a credential", ceremony.ErrFailed)
	}
	return r.Credential, nil
}
