// Package config manages wsforge configuration and filesystem paths.
//
// Configuration includes the location of the wsforge data directory, which can
// be customized via environment variables, and the user settings read from
// config.yaml. The default root is ~/.wsforge/ containing the metadata
// document, its backup and the settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by wsforge.
type Paths struct {
	// Root is the base directory for all wsforge data (default: ~/.wsforge)
	Root string

	// DataFile is the metadata document
	DataFile string

	// Config is the path to the settings file
	Config string
}

// DefaultPaths returns the default paths for wsforge.
// Paths can be overridden with environment variables:
// - WSFORGE_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("WSFORGE_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".wsforge")
	}
	return PathsAt(root), nil
}

// PathsAt returns the paths rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:     root,
		DataFile: filepath.Join(root, "data.json"),
		Config:   filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.Root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.Root, err)
	}
	return nil
}
