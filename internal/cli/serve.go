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

package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-biometric/internal/server"
	"github.com/jeremyhahn/go-biometric/pkg/biometric"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the biometric authentication server",
	Long: `Starts the HTTP server with the biometric ceremony API, health
probes, and the optional Prometheus metrics endpoint.

The daemon runs with the in-process software authenticator. Embedders
that bridge a platform authenticator (Touch ID, Windows Hello, Android
BiometricPrompt) construct the server package directly with their
adapter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := server.New(cfg, server.Options{
			Authenticator: biometric.NewMockAuthenticator(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		ctx := server.SetupSignalHandler()
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		case <-ctx.Done():
			log.Println("Shutdown signal received")
		}

		return srv.Shutdown()
	},
}
