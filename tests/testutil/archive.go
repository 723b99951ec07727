package testutil

import (
	"testing"

	"github.com/ducpham/marketdesk/internal/archive"
)

// NewTestArchive creates an in-memory notification archive with all
// migrations applied, scoped to userID. It automatically closes the
// archive when the test completes.
func NewTestArchive(t *testing.T, userID string) *archive.Archive {
	t.Helper()

	a, err := archive.Open(":memory:", userID)
	if err != nil {
		t.Fatalf("creating test archive: %v", err)
	}

	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("closing test archive: %v", err)
		}
	})

	return a
}
