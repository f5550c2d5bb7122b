package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestEnsureGeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	first, err := Ensure(path)
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("expected a UUID, got %q", first)
	}

	second, err := Ensure(path)
	if err != nil {
		t.Fatalf("second Ensure returned error: %v", err)
	}
	if second != first {
		t.Errorf("identity must be stable across runs: %q != %q", first, second)
	}
}

func TestEnsureRegeneratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("failed to seed corrupt file: %v", err)
	}

	id, err := Ensure(path)
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a regenerated UUID, got %q", id)
	}
}
