package config

import (
	"os"
	"path/filepath"
)

// FindRoot walks up from startDir looking for a .serialplot/ directory and
// returns the directory that holds it. Without one, startDir itself is the
// root so the first save creates .serialplot/ there.
func FindRoot(startDir string) string {
	start, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, dirName)); err == nil && info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return start
}
