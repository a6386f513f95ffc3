package testsupport

import (
	"testing"

	"mrimark/internal/config"
	"mrimark/internal/history"
)

// MustOpenHistory opens the history store configured for cfg and registers
// cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
