package helpers

import (
	"testing"

	"github.com/xiaot623/gogo/deliveryagent/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:", repository.Options{})
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func NewTestMemoryStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	return repository.NewMemoryStore(repository.Options{})
}
