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

package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyCheck(name string) CheckFunc {
	return func(ctx context.Context) CheckResult {
		return CheckResult{Name: name, Status: StatusHealthy}
	}
}

func unhealthyCheck(name string) CheckFunc {
	return func(ctx context.Context) CheckResult {
		return CheckResult{Name: name, Status: StatusUnhealthy, Error: "backend unreachable"}
	}
}

func TestLive(t *testing.T) {
	checker := NewChecker()
	result := checker.Live(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestReady(t *testing.T) {
	t.Run("NoChecksIsReady", func(t *testing.T) {
		checker := NewChecker()
		results := checker.Ready(context.Background())
		require.Len(t, results, 1)
		assert.Equal(t, StatusHealthy, results[0].Status)
		assert.True(t, checker.IsHealthy(context.Background()))
	})

	t.Run("AllHealthy", func(t *testing.T) {
		checker := NewChecker()
		checker.RegisterCheck("storage", healthyCheck("storage"))
		checker.RegisterCheck("envelope", healthyCheck("envelope"))

		results := checker.Ready(context.Background())
		assert.Len(t, results, 2)
		assert.True(t, checker.IsHealthy(context.Background()))
	})

	t.Run("UnhealthyCheckFailsReadiness", func(t *testing.T) {
		checker := NewChecker()
		checker.RegisterCheck("storage", unhealthyCheck("storage"))

		assert.False(t, checker.IsHealthy(context.Background()))
	})

	t.Run("DegradedStillReady", func(t *testing.T) {
		checker := NewChecker()
		checker.RegisterCheck("envelope", func(ctx context.Context) CheckResult {
			return CheckResult{Name: "envelope", Status: StatusDegraded, Message: "plain mode"}
		})

		assert.True(t, checker.IsHealthy(context.Background()))
	})

	t.Run("UnregisterCheck", func(t *testing.T) {
		checker := NewChecker()
		checker.RegisterCheck("storage", unhealthyCheck("storage"))
		checker.UnregisterCheck("storage")

		assert.True(t, checker.IsHealthy(context.Background()))
	})

	t.Run("NameFilledFromRegistration", func(t *testing.T) {
		checker := NewChecker()
		checker.RegisterCheck("storage", func(ctx context.Context) CheckResult {
			return CheckResult{Status: StatusHealthy}
		})

		results := checker.Ready(context.Background())
		require.Len(t, results, 1)
		assert.Equal(t, "storage", results[0].Name)
	})
}

func TestStartup(t *testing.T) {
	checker := NewChecker()

	result := checker.Startup(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.False(t, checker.IsStarted())

	checker.MarkStarted()
	result = checker.Startup(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.True(t, checker.IsStarted())

	checker.MarkNotStarted()
	assert.False(t, checker.IsStarted())
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		results  []CheckResult
		expected Status
	}{
		{"Empty", nil, StatusHealthy},
		{"AllHealthy", []CheckResult{{Status: StatusHealthy}, {Status: StatusHealthy}}, StatusHealthy},
		{"OneDegraded", []CheckResult{{Status: StatusHealthy}, {Status: StatusDegraded}}, StatusDegraded},
		{"UnhealthyWins", []CheckResult{{Status: StatusDegraded}, {Status: StatusUnhealthy}}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AggregateStatus(tt.results))
		})
	}
}
