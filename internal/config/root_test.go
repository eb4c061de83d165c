package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot_WithMarker(t *testing.T) {
	tmp := t.TempDir()
	os.MkdirAll(filepath.Join(tmp, ".serialplot"), 0o755)

	if got := FindRoot(tmp); got != tmp {
		t.Errorf("expected root=%s, got=%s", tmp, got)
	}
}

func TestFindRoot_Subdirectory(t *testing.T) {
	tmp := t.TempDir()
	os.MkdirAll(filepath.Join(tmp, ".serialplot"), 0o755)
	sub := filepath.Join(tmp, "firmware", "src")
	os.MkdirAll(sub, 0o755)

	if got := FindRoot(sub); got != tmp {
		t.Errorf("expected root=%s from subdirectory, got=%s", tmp, got)
	}
}

func TestFindRoot_MarkerMustBeDirectory(t *testing.T) {
	tmp := t.TempDir()
	sub := filepath.Join(tmp, "a")
	os.MkdirAll(sub, 0o755)
	os.WriteFile(filepath.Join(sub, ".serialplot"), []byte("not a dir"), 0o644)

	if got := FindRoot(sub); got == sub {
		t.Errorf("expected a plain file not to count as the marker")
	}
}

func TestFindRoot_FallsBackToStart(t *testing.T) {
	tmp := t.TempDir()
	sub := filepath.Join(tmp, "project")
	os.MkdirAll(sub, 0o755)

	// Only meaningful when no ancestor of the temp dir has a marker.
	if got := FindRoot(sub); got != sub {
		if _, err := os.Stat(filepath.Join(got, ".serialplot")); err != nil {
			t.Errorf("expected fallback to %s, got %s", sub, got)
		}
	}
}
