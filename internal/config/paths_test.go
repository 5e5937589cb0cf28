package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	t.Run("returns paths based on home directory", func(t *testing.T) {
		t.Setenv("WSFORGE_ROOT", "")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Root == "" {
			t.Error("Root should not be empty")
		}
		if paths.DataFile != filepath.Join(paths.Root, "data.json") {
			t.Errorf("DataFile path incorrect: got %s", paths.DataFile)
		}
		if paths.Config != filepath.Join(paths.Root, "config.yaml") {
			t.Errorf("Config path incorrect: got %s", paths.Config)
		}
		if filepath.Base(paths.Root) != ".wsforge" {
			t.Errorf("Root should end with .wsforge, got: %s", paths.Root)
		}
	})

	t.Run("respects WSFORGE_ROOT environment variable", func(t *testing.T) {
		customRoot := "/custom/wsforge/path"
		t.Setenv("WSFORGE_ROOT", customRoot)

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Root != customRoot {
			t.Errorf("Root should be %s, got: %s", customRoot, paths.Root)
		}
		if paths.DataFile != filepath.Join(customRoot, "data.json") {
			t.Errorf("DataFile should be under custom root, got: %s", paths.DataFile)
		}
	})
}

func TestEnsureDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "wsforge")
	paths := PathsAt(root)

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("root not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("root should be a directory")
	}

	// Idempotent
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories second call failed: %v", err)
	}
}
