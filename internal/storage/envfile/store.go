// Package envfile stores environments as dotenv files in a single directory.
// Each *.env file is one environment; the base name is the environment name.
package envfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
)

const extension = ".env"

// Store reads and writes environment files under a root directory. It
// implements interfaces.EnvironmentSource.
type Store struct {
	mu     sync.RWMutex
	root   string
	closed bool
	logger hclog.Logger
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, logger hclog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create environments directory: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{root: dir, logger: logger.Named("envfile")}, nil
}

// ListEnvironments returns every environment file in the directory, sorted by
// name. Unreadable files are skipped with a warning rather than failing the
// whole listing.
func (s *Store) ListEnvironments(ctx context.Context) ([]*core.EnvironmentFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read environments directory: %w", err)
	}

	var environments []*core.EnvironmentFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), extension)
		env, err := s.read(name)
		if err != nil {
			s.logger.Warn("skipping unreadable environment file", "file", entry.Name(), "error", err)
			continue
		}
		environments = append(environments, env)
	}

	sort.Slice(environments, func(i, j int) bool {
		return environments[i].Name() < environments[j].Name()
	})

	return environments, nil
}

// Read loads a single environment by name.
func (s *Store) Read(ctx context.Context, name string) (*core.EnvironmentFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	env, err := s.read(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, err
	}
	return env, nil
}

// Save writes the environment back to its file, replacing the previous
// contents. Variables are written one KEY=value per line in insertion order.
func (s *Store) Save(ctx context.Context, env *core.EnvironmentFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	var buf strings.Builder
	vars := env.Variables()
	for _, key := range env.Keys() {
		buf.WriteString(key)
		buf.WriteString("=")
		buf.WriteString(vars[key])
		buf.WriteString("\n")
	}

	path := s.path(env.Name())
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	return nil
}

// Create makes a new empty environment file. An existing file with the same
// name is an error, never truncated.
func (s *Store) Create(ctx context.Context, name string) (*core.EnvironmentFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	f, err := os.OpenFile(s.path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment file: %w", err)
	}
	f.Close()

	return core.NewEnvironmentFile(name), nil
}

// Delete removes an environment file.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to delete environment file: %w", err)
	}
	return nil
}

// Watch notifies onChange whenever an environment file is created, written,
// renamed or removed, until the context is cancelled. Intended to run in its
// own goroutine.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.root); err != nil {
		return fmt.Errorf("failed to watch environments directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, extension) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.logger.Debug("environment file changed", "file", filepath.Base(event.Name), "op", event.Op.String())
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close marks the store closed. Watchers stop via their contexts.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name+extension)
}

// read parses a dotenv file. Blank lines, comment lines and lines without an
// equals sign are skipped; values keep everything after the first equals sign.
func (s *Store) read(name string) (*core.EnvironmentFile, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, err
	}

	env := core.NewEnvironmentFile(name)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		env.SetVariable(key, strings.TrimSpace(value))
	}

	return env, nil
}
