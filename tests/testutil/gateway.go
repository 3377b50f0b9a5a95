// Package testutil provides test constructors for the embedded
// gateway and feed hub.
package testutil

import (
	"testing"

	"github.com/nhle/planhub/internal/feed"
	"github.com/nhle/planhub/internal/gateway"
)

// NewTestGateway creates an in-memory SQLite gateway with all
// migrations applied and a change-feed hub attached. Both are torn
// down when the test completes.
func NewTestGateway(t *testing.T) *gateway.SQLite {
	t.Helper()

	hub := feed.NewHub(64)
	s, err := gateway.NewSQLite(":memory:", hub)
	if err != nil {
		t.Fatalf("creating test gateway: %v", err)
	}

	t.Cleanup(func() {
		hub.Close()
		if err := s.Close(); err != nil {
			t.Errorf("closing test gateway: %v", err)
		}
	})

	return s
}
