package network

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var ErrDuplicateNetwork = errors.New("network already registered")

// Registry holds the networks a process serves, keyed by name.
type Registry struct {
	mu       sync.RWMutex
	networks map[string]*Network
}

func NewRegistry() *Registry {
	return &Registry{networks: make(map[string]*Network)}
}

func (r *Registry) Register(n *Network) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.networks[n.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNetwork, n.Name)
	}
	r.networks[n.Name] = n
	return nil
}

func (r *Registry) Get(name string) (*Network, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.networks[name]
	return n, ok
}

// List returns every network sorted by name.
func (r *Registry) List() []*Network {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Network, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadDir parses and registers every *.yaml and *.yml file in dir, in name
// order. It stops at the first file that fails and returns the names
// registered before it.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read networks dir: %w", err)
	}

	var loaded []string
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		n, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, err
		}
		if err := r.Register(n); err != nil {
			return loaded, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		loaded = append(loaded, n.Name)
	}
	return loaded, nil
}

// LoadFile parses a single network definition file.
func LoadFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return n, nil
}
