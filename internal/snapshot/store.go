package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store reads and writes the snapshot tree on disk. The build pipeline is
// the only writer; the serving middleware and the verifier read it.
//
// Snapshots are not invalidated when content changes after a build; staleness
// until the next prerender run is a known, accepted limitation.
type Store struct {
	root string
}

// NewStore creates the root directory if needed and returns a store.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("snapshot root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the snapshot tree root directory.
func (s *Store) Root() string {
	return s.root
}

// Write persists the HTML for one route at its mapped file path.
func (s *Store) Write(route string, html []byte) (string, error) {
	target, err := s.resolve(route)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create snapshot dir for %s: %w", route, err)
	}
	if err := os.WriteFile(target, html, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", target, err)
	}
	return target, nil
}

// Read returns the snapshot bytes for a route, or os.ErrNotExist.
func (s *Store) Read(route string) ([]byte, error) {
	target, err := s.resolve(route)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read snapshot for %s: %w", route, err)
	}
	return data, nil
}

// Exists reports whether a snapshot file is present for the route.
func (s *Store) Exists(route string) bool {
	target, err := s.resolve(route)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

func (s *Store) resolve(route string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(FilePath(NormalizeRoute(route))))
	cleanRoot := filepath.Clean(s.root)
	if !strings.HasPrefix(filepath.Clean(full), cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("route %q escapes snapshot root", route)
	}
	return full, nil
}
